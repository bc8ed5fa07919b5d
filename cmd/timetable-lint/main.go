package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/noah-isme/sma-timetable/internal/lint"
)

func main() {
	path := flag.String("file", "timetable.yaml", "timetable snapshot to check")
	flag.Parse()
	if flag.NArg() > 0 {
		*path = flag.Arg(0)
	}

	snap, err := lint.LoadFile(*path)
	if err != nil {
		color.Red("%v", err)
		os.Exit(2)
	}

	report := lint.Run(snap)
	printReport(os.Stdout, *path, report)
	if !report.OK() {
		os.Exit(1)
	}
}

func printReport(w io.Writer, path string, report lint.Report) {
	color.Cyan("\n=== Timetable lint: %s ===", path)

	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"Checked", "Count"})
	summary.Append([]string{"Slots", strconv.Itoa(report.SlotsChecked)})
	summary.Append([]string{"Prerequisite edges", strconv.Itoa(report.EdgesChecked)})
	summary.Append([]string{"Findings", strconv.Itoa(len(report.Findings))})
	summary.Render()

	if report.OK() {
		color.Green("No problems found")
		return
	}

	color.Yellow("\nFindings")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Kind", "Subject", "Detail"})
	table.SetAutoWrapText(false)
	for _, f := range report.Findings {
		table.Append([]string{f.Kind, f.Subject, f.Detail})
	}
	table.Render()
	fmt.Fprintln(w)
	color.Red("%d problem(s) found", len(report.Findings))
}

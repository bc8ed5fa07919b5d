// Package lint checks an exported timetable snapshot offline, without a database.
package lint

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-timetable/internal/engine"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

// Finding kinds.
const (
	KindInvalidSlot   = "invalid_slot"
	KindConflict      = "conflict"
	KindSelfReference = "self_reference"
	KindDuplicateEdge = "duplicate_edge"
	KindCycle         = "cycle"
)

// Snapshot is the YAML document the lint command reads.
type Snapshot struct {
	Slots         []SlotRecord `yaml:"slots"`
	Prerequisites []EdgeRecord `yaml:"prerequisites"`
}

// SlotRecord is one weekly slot in a snapshot.
type SlotRecord struct {
	ID      string `yaml:"id"`
	Day     int    `yaml:"day"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
	Class   string `yaml:"class"`
	Subject string `yaml:"subject"`
	Teacher string `yaml:"teacher"`
	Room    string `yaml:"room"`
	Status  string `yaml:"status"`
}

// EdgeRecord declares that Prerequisite must be completed before Subject.
type EdgeRecord struct {
	Subject      string `yaml:"subject"`
	Prerequisite string `yaml:"prerequisite"`
}

// Finding is a single problem found in a snapshot.
type Finding struct {
	Kind    string
	Subject string
	Detail  string
}

// Report groups findings and the counts that were checked.
type Report struct {
	SlotsChecked int
	EdgesChecked int
	Findings     []Finding
}

// OK reports whether the snapshot is clean.
func (r Report) OK() bool {
	return len(r.Findings) == 0
}

// Parse decodes a snapshot from YAML bytes.
func Parse(data []byte) (Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Snapshot{}, fmt.Errorf("lint: snapshot is empty")
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("lint: decode snapshot: %w", err)
	}
	return snap, nil
}

// LoadFile reads and decodes a snapshot file.
func LoadFile(path string) (Snapshot, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("lint: read %s: %w", path, err)
	}
	snap, err := Parse(content)
	if err != nil {
		return Snapshot{}, fmt.Errorf("lint: %s: %w", path, err)
	}
	return snap, nil
}

// Run checks every slot against the slots listed before it and replays the prerequisite edges
// into a graph in declaration order. Each colliding pair is reported once.
func Run(snap Snapshot) Report {
	report := Report{SlotsChecked: len(snap.Slots), EdgesChecked: len(snap.Prerequisites)}
	report.Findings = append(report.Findings, checkSlots(snap.Slots)...)
	report.Findings = append(report.Findings, checkEdges(snap.Prerequisites)...)
	return report
}

func checkSlots(records []SlotRecord) []Finding {
	var findings []Finding
	detector := engine.NewConflictDetector()
	accepted := make([]models.TimeSlot, 0, len(records))

	for i, record := range records {
		slot := record.toModel(i)
		window := engine.Window{DayOfWeek: slot.DayOfWeek, StartTime: slot.StartTime, EndTime: slot.EndTime}
		if _, err := window.Validate(); err != nil {
			findings = append(findings, Finding{Kind: KindInvalidSlot, Subject: slot.ID, Detail: message(err)})
			continue
		}
		if !validStatus(slot.Status) {
			findings = append(findings, Finding{Kind: KindInvalidSlot, Subject: slot.ID, Detail: fmt.Sprintf("unknown status %q", slot.Status)})
			continue
		}

		result, err := detector.Check(slot, accepted, "")
		if err != nil {
			findings = append(findings, Finding{Kind: KindInvalidSlot, Subject: slot.ID, Detail: message(err)})
			continue
		}
		for _, conflict := range result.Conflicts {
			findings = append(findings, Finding{
				Kind:    KindConflict,
				Subject: slot.ID,
				Detail:  fmt.Sprintf("overlaps %s on %s", conflict.Slot.ID, joinDimensions(conflict.Dimensions)),
			})
		}
		accepted = append(accepted, slot)
	}
	return findings
}

func checkEdges(edges []EdgeRecord) []Finding {
	var findings []Finding
	graph := engine.NewPrerequisiteGraph(nil)
	for _, edge := range edges {
		err := graph.AddEdge(edge.Subject, edge.Prerequisite)
		if err == nil {
			continue
		}
		kind := KindDuplicateEdge
		switch {
		case errors.Is(err, appErrors.ErrSelfReference):
			kind = KindSelfReference
		case errors.Is(err, appErrors.ErrCycle):
			kind = KindCycle
		}
		findings = append(findings, Finding{
			Kind:    kind,
			Subject: edge.Subject,
			Detail:  message(err),
		})
	}
	return findings
}

func (r SlotRecord) toModel(index int) models.TimeSlot {
	id := r.ID
	if id == "" {
		id = fmt.Sprintf("#%d", index+1)
	}
	status := models.TimeSlotStatus(strings.ToUpper(strings.TrimSpace(r.Status)))
	if status == "" {
		status = models.TimeSlotStatusScheduled
	}
	return models.TimeSlot{
		ID:        id,
		DayOfWeek: r.Day,
		StartTime: r.Start,
		EndTime:   r.End,
		ClassID:   r.Class,
		SubjectID: r.Subject,
		TeacherID: r.Teacher,
		RoomID:    r.Room,
		Status:    status,
	}
}

func validStatus(status models.TimeSlotStatus) bool {
	for _, s := range models.TimeSlotStatuses {
		if s == string(status) {
			return true
		}
	}
	return false
}

func joinDimensions(dims []models.ResourceType) string {
	names := make([]string, 0, len(dims))
	for _, d := range dims {
		names = append(names, string(d))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func message(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

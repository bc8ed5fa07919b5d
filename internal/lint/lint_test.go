package lint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotYAML = `
slots:
  - id: a
    day: 1
    start: "09:00"
    end: "10:00"
    class: c1
    subject: math
    teacher: t1
    room: r1
  - id: b
    day: 1
    start: "10:00"
    end: "11:00"
    class: c1
    subject: physics
    teacher: t1
    room: r1
  - id: c
    day: 1
    start: "09:30"
    end: "10:30"
    class: c2
    subject: chemistry
    teacher: t1
    room: r2
  - id: d
    day: 1
    start: "09:30"
    end: "10:30"
    class: c3
    subject: chemistry
    teacher: t1
    room: r3
    status: cancelled
  - id: e
    day: 7
    start: "09:00"
    end: "10:00"
    class: c4
    subject: art
    teacher: t9
    room: r9
prerequisites:
  - {subject: calculus, prerequisite: algebra}
  - {subject: physics, prerequisite: calculus}
  - {subject: algebra, prerequisite: physics}
  - {subject: physics, prerequisite: calculus}
  - {subject: art, prerequisite: art}
`

func TestRunReportsEveryProblem(t *testing.T) {
	snap, err := Parse([]byte(snapshotYAML))
	require.NoError(t, err)

	report := Run(snap)

	assert.False(t, report.OK())
	assert.Equal(t, 5, report.SlotsChecked)
	assert.Equal(t, 5, report.EdgesChecked)

	kinds := map[string][]string{}
	for _, f := range report.Findings {
		kinds[f.Kind] = append(kinds[f.Kind], f.Subject)
	}
	assert.Equal(t, []string{"c", "c"}, kinds[KindConflict])
	assert.Equal(t, []string{"e"}, kinds[KindInvalidSlot])
	assert.Equal(t, []string{"algebra"}, kinds[KindCycle])
	assert.Equal(t, []string{"physics"}, kinds[KindDuplicateEdge])
	assert.Equal(t, []string{"art"}, kinds[KindSelfReference])
}

func TestRunCleanSnapshot(t *testing.T) {
	report := Run(Snapshot{
		Slots: []SlotRecord{
			{ID: "a", Day: 2, Start: "08:00", End: "09:00", Class: "c1", Teacher: "t1", Room: "r1"},
			{ID: "b", Day: 2, Start: "09:00", End: "10:00", Class: "c1", Teacher: "t1", Room: "r1"},
			{ID: "c", Day: 3, Start: "08:00", End: "09:00", Class: "c1", Teacher: "t1", Room: "r1"},
		},
		Prerequisites: []EdgeRecord{{Subject: "b", Prerequisite: "a"}, {Subject: "c", Prerequisite: "a"}},
	})
	assert.True(t, report.OK())
}

func TestRunFlagsUnknownStatus(t *testing.T) {
	report := Run(Snapshot{Slots: []SlotRecord{{Day: 1, Start: "08:00", End: "09:00", Status: "postponed"}}})
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "#1", report.Findings[0].Subject)
	assert.Contains(t, report.Findings[0].Detail, "POSTPONED")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(snapshotYAML), 0o600))

	snap, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, snap.Slots, 5)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("   "))
	assert.Error(t, err)
}

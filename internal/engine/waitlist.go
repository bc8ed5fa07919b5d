package engine

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

// Waitlist is an in-memory view of one class's queue. Positions are always 1..N in join order.
type Waitlist struct {
	classID string
	entries []models.WaitlistEntry
}

// NewWaitlist loads a snapshot and verifies it is dense and free of duplicate students.
func NewWaitlist(classID string, snapshot []models.WaitlistEntry) (*Waitlist, error) {
	entries := make([]models.WaitlistEntry, len(snapshot))
	copy(entries, snapshot)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })

	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		if entry.ClassID != classID {
			return nil, corruptWaitlist(classID, fmt.Sprintf("entry %s belongs to class %s", entry.ID, entry.ClassID))
		}
		if entry.Position != i+1 {
			return nil, corruptWaitlist(classID, fmt.Sprintf("expected position %d, found %d", i+1, entry.Position))
		}
		if seen[entry.StudentID] {
			return nil, corruptWaitlist(classID, fmt.Sprintf("student %s appears twice", entry.StudentID))
		}
		seen[entry.StudentID] = true
	}
	return &Waitlist{classID: classID, entries: entries}, nil
}

func corruptWaitlist(classID, reason string) error {
	return appErrors.Wrap(fmt.Errorf("%s", reason), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("waitlist for class %s is corrupted", classID))
}

// Entries returns a copy of the queue in position order.
func (w *Waitlist) Entries() []models.WaitlistEntry {
	out := make([]models.WaitlistEntry, len(w.entries))
	copy(out, w.entries)
	return out
}

// Len returns the queue length.
func (w *Waitlist) Len() int {
	return len(w.entries)
}

// Find returns the entry for a student, if queued.
func (w *Waitlist) Find(studentID string) (models.WaitlistEntry, bool) {
	for _, entry := range w.entries {
		if entry.StudentID == studentID {
			return entry, true
		}
	}
	return models.WaitlistEntry{}, false
}

// Join appends the student at position N+1.
func (w *Waitlist) Join(studentID string) (models.WaitlistEntry, error) {
	if _, ok := w.Find(studentID); ok {
		return models.WaitlistEntry{}, appErrors.Clone(appErrors.ErrConflict, "student is already on the waitlist")
	}
	entry := models.WaitlistEntry{
		ClassID:   w.classID,
		StudentID: studentID,
		Position:  len(w.entries) + 1,
	}
	w.entries = append(w.entries, entry)
	return entry, nil
}

// Leave removes the student and shifts every later entry up by one.
func (w *Waitlist) Leave(studentID string) (models.WaitlistChange, error) {
	for i, entry := range w.entries {
		if entry.StudentID == studentID {
			return w.removeAt(i), nil
		}
	}
	return models.WaitlistChange{}, appErrors.Clone(appErrors.ErrNotFound, "student is not on the waitlist")
}

// PromoteNext pops position 1. It returns nil when the queue is empty.
func (w *Waitlist) PromoteNext() (*models.WaitlistEntry, models.WaitlistChange) {
	if len(w.entries) == 0 {
		return nil, models.WaitlistChange{}
	}
	change := w.removeAt(0)
	return change.Removed, change
}

func (w *Waitlist) removeAt(index int) models.WaitlistChange {
	removed := w.entries[index]
	rest := make([]models.WaitlistEntry, 0, len(w.entries)-1)
	rest = append(rest, w.entries[:index]...)
	shifted := make([]models.WaitlistEntry, 0, len(w.entries)-index-1)
	for _, entry := range w.entries[index+1:] {
		entry.Position--
		rest = append(rest, entry)
		shifted = append(shifted, entry)
	}
	w.entries = rest
	return models.WaitlistChange{Removed: &removed, Shifted: shifted}
}

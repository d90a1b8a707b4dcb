package domain

import "github.com/google/uuid"

// MinutesPerDay is the hard budget on total logged minutes for one date.
const MinutesPerDay = 1440

// Ledger owns the ordered activity list for one (user, date) pair together
// with the edit cursor. All mutation goes through its methods, which keep
// the invariant that TotalMinutes never exceeds MinutesPerDay: a request
// that would overflow the day is clamped to the remaining budget, never
// rejected.
//
// The ledger is not safe for concurrent use; each user session mutates it
// serially.
type Ledger struct {
	byID      map[string]*Activity
	order     []string
	editingID string
	analyzed  bool
}

// NewLedger returns an empty ledger for a date with no persisted record.
func NewLedger() *Ledger {
	return &Ledger{byID: make(map[string]*Activity)}
}

// LedgerFromRecord rebuilds a ledger from its persisted form. Entries with
// a duplicate or empty ID are dropped rather than corrupting the arena.
func LedgerFromRecord(rec DayRecord) *Ledger {
	l := NewLedger()
	l.analyzed = rec.Analyzed
	for _, a := range rec.Activities {
		if a.ID == "" {
			continue
		}
		if _, exists := l.byID[a.ID]; exists {
			continue
		}
		copied := a
		l.byID[a.ID] = &copied
		l.order = append(l.order, a.ID)
	}
	return l
}

// Record snapshots the ledger into its whole-value persisted form.
func (l *Ledger) Record(date string) DayRecord {
	return DayRecord{Date: date, Activities: l.Activities(), Analyzed: l.analyzed}
}

// Activities returns a copy of the entries in insertion order.
func (l *Ledger) Activities() []Activity {
	out := make([]Activity, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.byID[id])
	}
	return out
}

// Len reports the number of entries.
func (l *Ledger) Len() int { return len(l.order) }

// TotalMinutes sums the minutes of every entry.
func (l *Ledger) TotalMinutes() int {
	total := 0
	for _, a := range l.byID {
		total += a.Minutes
	}
	return total
}

func (l *Ledger) minutesInEdit() int {
	if l.editingID == "" {
		return 0
	}
	if a, ok := l.byID[l.editingID]; ok {
		return a.Minutes
	}
	return 0
}

// RemainingMinutes is the unclaimed budget. While an edit is in progress
// the in-edit entry's minutes are credited back so it can be resized up to
// its old allotment plus whatever is unused.
func (l *Ledger) RemainingMinutes() int {
	return MinutesPerDay - l.TotalMinutes() + l.minutesInEdit()
}

// IsDayComplete reports whether the full day is logged and no edit is open.
func (l *Ledger) IsDayComplete() bool {
	return l.TotalMinutes() >= MinutesPerDay && l.editingID == ""
}

// Analyzed reports whether an insight has been generated for this day.
// Advisory only; the ledger does not enforce anything based on it.
func (l *Ledger) Analyzed() bool { return l.analyzed }

// MarkAnalyzed sets the advisory analyzed flag.
func (l *Ledger) MarkAnalyzed() { l.analyzed = true }

// Editing returns the in-edit activity ID, if any.
func (l *Ledger) Editing() (string, bool) {
	return l.editingID, l.editingID != ""
}

func clamp(requested, remaining int) int {
	if requested < 0 {
		return 0
	}
	if requested > remaining {
		return remaining
	}
	return requested
}

// Add appends a new activity, clamping the requested duration to the
// remaining budget. Input validation (non-empty title, positive duration,
// day not complete) happens at the API boundary; Add itself cannot fail.
func (l *Ledger) Add(title string, category Category, hours, minutes int) Activity {
	requested := hours*60 + minutes
	a := Activity{
		ID:       uuid.NewString(),
		Title:    title,
		Category: category,
		Minutes:  clamp(requested, l.RemainingMinutes()),
	}
	l.byID[a.ID] = &a
	l.order = append(l.order, a.ID)
	return a
}

// Draft is the form pre-fill for an edit in progress, with the duration
// decomposed into hour and minute components.
type Draft struct {
	Title    string
	Category Category
	Hours    int
	Minutes  int
}

// StartEdit opens an edit on the given activity and returns its draft.
// Returns false when the ID is unknown. At most one edit can be open; the
// caller disables entry into edit mode while one is.
func (l *Ledger) StartEdit(id string) (Draft, bool) {
	a, ok := l.byID[id]
	if !ok {
		return Draft{}, false
	}
	l.editingID = id
	return Draft{
		Title:    a.Title,
		Category: a.Category,
		Hours:    a.Minutes / 60,
		Minutes:  a.Minutes % 60,
	}, true
}

// CommitEdit replaces the in-edit activity's fields in place, preserving
// its ID and position. The new duration is clamped against a budget that
// already credits back the entry's prior minutes. Returns false when no
// edit is open.
func (l *Ledger) CommitEdit(title string, category Category, hours, minutes int) (Activity, bool) {
	if l.editingID == "" {
		return Activity{}, false
	}
	a, ok := l.byID[l.editingID]
	if !ok {
		// Cursor pointing at a removed entry cannot happen via Delete,
		// which cancels first; clear it anyway.
		l.editingID = ""
		return Activity{}, false
	}
	requested := hours*60 + minutes
	a.Title = title
	a.Category = category
	a.Minutes = clamp(requested, l.RemainingMinutes())
	l.editingID = ""
	return *a, true
}

// CancelEdit clears the edit cursor without touching the ledger. Idempotent.
func (l *Ledger) CancelEdit() { l.editingID = "" }

// Delete removes the activity unconditionally; removal only frees budget.
// Deleting the in-edit entry cancels the edit first so the cursor never
// references a removed activity. Returns false when the ID is absent.
func (l *Ledger) Delete(id string) bool {
	if _, ok := l.byID[id]; !ok {
		return false
	}
	if l.editingID == id {
		l.CancelEdit()
	}
	delete(l.byID, id)
	for i, existing := range l.order {
		if existing == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

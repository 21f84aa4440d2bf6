package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of a roster.
type State string

const (
	StateIdle       State = "idle"
	StateLoaded     State = "loaded"
	StateSubmitting State = "submitting"
)

// Mode tells whether the session is marked for the first time or edited.
type Mode string

const (
	ModeNew  Mode = "new"
	ModeEdit Mode = "edit"
)

// ActionKind names a mutation that waits for the user to confirm it.
type ActionKind string

const (
	ActionMarkOverLimitPresent ActionKind = "mark_over_limit_present"
	ActionMarkAllPresent       ActionKind = "mark_all_present"
)

// PendingAction is a mutation held back until the user confirms or declines it.
type PendingAction struct {
	ID        string     `json:"id"`
	Kind      ActionKind `json:"kind"`
	StudentID string     `json:"studentId,omitempty"`
	Prompt    string     `json:"prompt"`
}

// Marker sends a submission to the system of record.
type Marker interface {
	MarkAttendance(ctx context.Context, sub Submission) error
}

// Roster is the in-memory working set for one marking session. It is not safe
// for concurrent use; Desk serializes access to the rosters it owns.
type Roster struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId"`
	Mode      Mode           `json:"mode"`
	State     State          `json:"state"`
	Rows      []Row          `json:"rows"`
	Pending   *PendingAction `json:"pending,omitempty"`
	Notice    string         `json:"notice,omitempty"`
	OpenedAt  time.Time      `json:"openedAt"`
}

// NewRoster returns a loaded roster over rows.
func NewRoster(sessionID string, mode Mode, rows []Row) *Roster {
	if rows == nil {
		rows = []Row{}
	}
	return &Roster{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Mode:      mode,
		State:     StateLoaded,
		Rows:      rows,
		OpenedAt:  time.Now().UTC(),
	}
}

// Clone returns a deep copy.
func (r *Roster) Clone() *Roster {
	if r == nil {
		return nil
	}
	out := *r
	if r.Rows != nil {
		out.Rows = make([]Row, len(r.Rows))
		copy(out.Rows, r.Rows)
	}
	if r.Pending != nil {
		p := *r.Pending
		out.Pending = &p
	}
	return &out
}

// Counts derives present, absent and total from the rows.
func (r *Roster) Counts() Counts {
	var c Counts
	for _, row := range r.Rows {
		if row.IsPresent {
			c.Present++
		} else {
			c.Absent++
		}
	}
	c.Total = c.Present + c.Absent
	return c
}

// OverLimitPresent reports whether any over-limit student is marked present.
func (r *Roster) OverLimitPresent() bool {
	for _, row := range r.Rows {
		if row.IsOverLimit && row.IsPresent {
			return true
		}
	}
	return false
}

// Row returns the row for studentID.
func (r *Roster) Row(studentID string) (Row, bool) {
	if i := r.indexOf(studentID); i >= 0 {
		return r.Rows[i], true
	}
	return Row{}, false
}

// Toggle flips the mark of one student. Marking an absent over-limit student
// present is not applied; the returned PendingAction must be resolved first.
func (r *Roster) Toggle(studentID string) (*PendingAction, error) {
	if err := r.editable(); err != nil {
		return nil, err
	}
	i := r.indexOf(studentID)
	if i < 0 {
		return nil, ErrUnknownStudent
	}
	r.Pending = nil

	row := &r.Rows[i]
	if !row.IsPresent && row.IsOverLimit {
		r.Pending = &PendingAction{
			ID:        uuid.NewString(),
			Kind:      ActionMarkOverLimitPresent,
			StudentID: studentID,
			Prompt: fmt.Sprintf("%s has exceeded their allowed sessions (%d/%d). Mark them present anyway?",
				displayName(row.EligibleStudent), row.AttendedSessions, row.AllowedSessions),
		}
		return r.Pending.clone(), nil
	}
	row.IsPresent = !row.IsPresent
	return nil, nil
}

// SetRemarks replaces the remarks of one student.
func (r *Roster) SetRemarks(studentID, text string) error {
	if err := r.editable(); err != nil {
		return err
	}
	i := r.indexOf(studentID)
	if i < 0 {
		return ErrUnknownStudent
	}
	r.Pending = nil
	r.Rows[i].Remarks = text
	return nil
}

// MarkAll sets every row to present. Marking all present touches over-limit
// students too, so it is held as one PendingAction for the whole batch;
// marking all absent applies immediately.
func (r *Roster) MarkAll(present bool) (*PendingAction, error) {
	if err := r.editable(); err != nil {
		return nil, err
	}
	r.Pending = nil
	if present {
		r.Pending = &PendingAction{
			ID:     uuid.NewString(),
			Kind:   ActionMarkAllPresent,
			Prompt: fmt.Sprintf("Mark ALL %d students as present, including any over their session limit?", len(r.Rows)),
		}
		return r.Pending.clone(), nil
	}
	r.setAll(false)
	return nil, nil
}

// MarkAllPresent is MarkAll(true).
func (r *Roster) MarkAllPresent() (*PendingAction, error) { return r.MarkAll(true) }

// MarkAllAbsent is MarkAll(false).
func (r *Roster) MarkAllAbsent() error {
	_, err := r.MarkAll(false)
	return err
}

// Resolve applies or discards the pending action with the given id. It
// reports whether the action was applied; a declined action leaves the rows
// untouched and is not an error.
func (r *Roster) Resolve(actionID string, confirm bool) (bool, error) {
	if err := r.editable(); err != nil {
		return false, err
	}
	if r.Pending == nil || r.Pending.ID != actionID {
		return false, ErrNoPendingAction
	}
	action := *r.Pending
	r.Pending = nil
	if !confirm {
		return false, nil
	}

	switch action.Kind {
	case ActionMarkOverLimitPresent:
		i := r.indexOf(action.StudentID)
		if i < 0 {
			return false, ErrUnknownStudent
		}
		r.Rows[i].IsPresent = true
	case ActionMarkAllPresent:
		r.setAll(true)
	default:
		return false, fmt.Errorf("attendance: unknown action kind %q", action.Kind)
	}
	return true, nil
}

// BeginSubmit moves a loaded roster to Submitting and returns its payload.
func (r *Roster) BeginSubmit() (Submission, error) {
	switch r.State {
	case StateSubmitting:
		return Submission{}, ErrSubmitting
	case StateLoaded:
	default:
		return Submission{}, ErrNotLoaded
	}
	if r.SessionID == "" {
		return Submission{}, ErrMissingSession
	}
	if len(r.Rows) == 0 {
		return Submission{}, ErrEmptyRoster
	}
	r.State = StateSubmitting
	return BuildSubmission(r.SessionID, r.Rows), nil
}

// FinishSubmit records the outcome of the submission started by BeginSubmit.
// Success discards the roster; failure returns it to Loaded untouched.
func (r *Roster) FinishSubmit(err error) {
	if r.State != StateSubmitting {
		return
	}
	if err != nil {
		r.State = StateLoaded
		return
	}
	r.State = StateIdle
	r.Rows = nil
	r.Pending = nil
	r.Notice = ""
}

// Submit sends the roster through m in one call.
func (r *Roster) Submit(ctx context.Context, m Marker) error {
	sub, err := r.BeginSubmit()
	if err != nil {
		return err
	}
	err = m.MarkAttendance(ctx, sub)
	r.FinishSubmit(err)
	if err != nil {
		return &SubmissionError{SessionID: r.SessionID, Err: err}
	}
	return nil
}

// BuildSubmission flattens rows into the wire payload. Only the student id,
// the mark and the remarks leave the roster.
func BuildSubmission(sessionID string, rows []Row) Submission {
	marks := make([]Mark, len(rows))
	for i, row := range rows {
		marks[i] = Mark{StudentID: row.StudentID, IsPresent: row.IsPresent, Remarks: row.Remarks}
	}
	return Submission{SessionID: sessionID, AttendanceList: marks}
}

func (r *Roster) editable() error {
	switch r.State {
	case StateLoaded:
		return nil
	case StateSubmitting:
		return ErrSubmitting
	default:
		return ErrNotLoaded
	}
}

func (r *Roster) setAll(present bool) {
	for i := range r.Rows {
		r.Rows[i].IsPresent = present
	}
}

func (r *Roster) indexOf(studentID string) int {
	for i := range r.Rows {
		if r.Rows[i].StudentID == studentID {
			return i
		}
	}
	return -1
}

func (p *PendingAction) clone() *PendingAction {
	c := *p
	return &c
}

func displayName(s EligibleStudent) string {
	if s.StudentName != "" {
		return s.StudentName
	}
	return s.StudentID
}

package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"rollcall/internal/attendance"
)

type fakeAcademy struct {
	eligible []attendance.EligibleStudent
	markErr  error
	marked   int
}

func (f *fakeAcademy) GetSession(_ context.Context, id string) (attendance.Session, error) {
	return attendance.Session{ID: id}, nil
}

func (f *fakeAcademy) EligibleStudents(context.Context) ([]attendance.EligibleStudent, error) {
	return f.eligible, nil
}

func (f *fakeAcademy) SessionAttendance(context.Context, string) ([]attendance.ExistingRecord, error) {
	return nil, nil
}

func (f *fakeAcademy) MarkAttendance(context.Context, attendance.Submission) error {
	f.marked++
	return f.markErr
}

func newTestModel(t *testing.T, fa *fakeAcademy) *Model {
	t.Helper()
	return newTestModelWithDelay(t, fa, time.Millisecond)
}

func newTestModelWithDelay(t *testing.T, fa *fakeAcademy, delay time.Duration) *Model {
	t.Helper()
	m := New(attendance.NewDesk(fa, attendance.NewMemoryStore()), "sess-1", "tester", delay)
	t.Cleanup(m.debounce.Stop)
	m.Update(m.openCmd()())
	return m
}

func press(m *Model, keys string) tea.Cmd {
	var msg tea.KeyMsg
	switch keys {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	m.Update(msg)
	return msg
}

func students() []attendance.EligibleStudent {
	return []attendance.EligibleStudent{
		{StudentID: "S1", StudentName: "Asha Rao", RollNo: "101", AttendedSessions: 2, AllowedSessions: 8},
		{StudentID: "S2", StudentName: "Ben Ito", RollNo: "102", AttendedSessions: 8, AllowedSessions: 8, IsOverLimit: true},
		{StudentID: "S3", StudentName: "Cleo Park", RollNo: "103", AttendedSessions: 0, AllowedSessions: 8},
	}
}

func TestOpenShowsDefaults(t *testing.T) {
	m := newTestModel(t, &fakeAcademy{eligible: students()})

	if m.mode != modeBrowse {
		t.Fatalf("mode = %v", m.mode)
	}
	view := m.View()
	for _, want := range []string{"Present: 2", "Absent: 1", "Total: 3", "OVER LIMIT"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestOverLimitToggleAsksFirst(t *testing.T) {
	m := newTestModel(t, &fakeAcademy{eligible: students()})

	press(m, "j")
	run(t, m, press(m, " "))
	if m.roster.Pending == nil {
		t.Fatal("no confirmation requested")
	}
	if !strings.Contains(m.View(), "exceeded their allowed sessions") {
		t.Fatal("prompt not shown")
	}

	// Other keys wait for an answer.
	if cmd := press(m, "s"); cmd != nil {
		t.Fatal("submit allowed while a confirmation is pending")
	}

	run(t, m, press(m, "n"))
	if row, _ := m.roster.Row("S2"); row.IsPresent || m.roster.Pending != nil {
		t.Fatalf("decline: row=%+v pending=%+v", row, m.roster.Pending)
	}

	run(t, m, press(m, " "))
	run(t, m, press(m, "y"))
	if row, _ := m.roster.Row("S2"); !row.IsPresent {
		t.Fatal("confirm not applied")
	}
	if !strings.Contains(m.View(), "exceeded their session limit") {
		t.Fatal("over-limit warning not shown")
	}
}

func TestRemarksEditing(t *testing.T) {
	m := newTestModel(t, &fakeAcademy{eligible: students()})

	press(m, "e")
	if m.mode != modeRemarks {
		t.Fatalf("mode = %v", m.mode)
	}
	press(m, "late")
	run(t, m, press(m, "enter"))
	if row, _ := m.roster.Row("S1"); row.Remarks != "late" {
		t.Fatalf("remarks = %q", row.Remarks)
	}
}

func TestSearchFilters(t *testing.T) {
	m := newTestModel(t, &fakeAcademy{eligible: students()})

	press(m, "/")
	press(m, "cleo")
	select {
	case term := <-m.searches:
		m.Update(searchMsg{term: term})
	case <-time.After(time.Second):
		t.Fatal("debounced search never fired")
	}
	if len(m.visible) != 1 || m.visible[0].StudentID != "S3" {
		t.Fatalf("visible = %+v", m.visible)
	}
	if !strings.Contains(m.View(), "Total: 3") {
		t.Fatal("counts should cover the whole roster")
	}

	press(m, "esc")
	if m.mode != modeBrowse || m.query != "cleo" {
		t.Fatalf("mode=%v query=%q", m.mode, m.query)
	}
}

func TestStaleSearchTermIgnoredAfterApply(t *testing.T) {
	m := newTestModelWithDelay(t, &fakeAcademy{eligible: students()}, time.Hour)

	press(m, "/")
	press(m, "be")
	// The debouncer already handed over "be" when the rest is typed.
	m.searches <- "be"
	press(m, "n")
	press(m, "enter")
	if m.query != "ben" {
		t.Fatalf("query = %q", m.query)
	}
	select {
	case term := <-m.searches:
		t.Fatalf("term %q left queued after apply", term)
	default:
	}

	// A term the debouncer delivered before the box closed.
	_, cmd := m.Update(searchMsg{term: "be"})
	if m.query != "ben" || len(m.visible) != 1 {
		t.Fatalf("stale term applied: query=%q visible=%d", m.query, len(m.visible))
	}
	if cmd == nil {
		t.Fatal("search listener not re-armed")
	}
}

func TestSubmitFailureKeepsEdits(t *testing.T) {
	fa := &fakeAcademy{eligible: students(), markErr: errors.New("bad gateway")}
	m := newTestModel(t, fa)

	run(t, m, press(m, " "))
	cmd := press(m, "s")
	if m.mode != modeBusy {
		t.Fatal("screen not busy while saving")
	}
	msg := cmd()
	m.Update(msg)
	if m.err != "failed to submit attendance" || m.mode != modeBrowse {
		t.Fatalf("err=%q mode=%v", m.err, m.mode)
	}
	r, err := m.desk.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if row, _ := r.Row("S1"); row.IsPresent || r.State != attendance.StateLoaded {
		t.Fatalf("roster after failed submit: state=%s row=%+v", r.State, row)
	}

	fa.markErr = nil
	msg = press(m, "s")()
	if _, quit := m.Update(msg); quit == nil || !m.Done() {
		t.Fatal("successful submit should end the program")
	}
}

func TestEmptyRoster(t *testing.T) {
	fa := &fakeAcademy{}
	m := newTestModel(t, fa)

	if !strings.Contains(m.View(), "No eligible students found for this session.") {
		t.Fatal("empty message not shown")
	}
	if cmd := press(m, "s"); cmd != nil {
		t.Fatal("empty roster submitted")
	}
	if fa.marked != 0 {
		t.Fatal("upstream called")
	}
}

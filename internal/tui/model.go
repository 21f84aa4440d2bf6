// Package tui is a terminal client that marks attendance for one session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"rollcall/internal/attendance"
	"rollcall/internal/debounce"
)

type inputMode int

const (
	modeBrowse inputMode = iota
	modeSearch
	modeRemarks
	modeBusy
)

// rosterMsg carries the roster after a desk operation.
type rosterMsg struct {
	roster  *attendance.Roster
	pending *attendance.PendingAction
	status  string
	err     error
}

type submittedMsg struct {
	err error
}

type cancelledMsg struct{}

// searchMsg is delivered once typing in the search box pauses.
type searchMsg struct {
	term string
}

// Model is the roster screen.
type Model struct {
	desk      *attendance.Desk
	sessionID string
	user      string
	keys      KeyMap
	help      help.Model

	roster  *attendance.Roster
	visible []attendance.Row
	cursor  int
	query   string

	mode     inputMode
	search   textinput.Model
	remarks  textinput.Model
	searches chan string
	debounce *debounce.Debouncer[string]

	status string
	err    string
	done   bool
	width  int
}

// New creates the screen for sessionID. Search input is applied once it has
// been quiet for searchDelay.
func New(desk *attendance.Desk, sessionID, user string, searchDelay time.Duration) *Model {
	search := textinput.New()
	search.Placeholder = "Search by name, roll no or email..."
	search.Prompt = "/ "

	remarks := textinput.New()
	remarks.Placeholder = "Add remarks..."
	remarks.Prompt = "remarks: "
	remarks.CharLimit = 500

	searches := make(chan string, 1)
	m := &Model{
		desk:      desk,
		sessionID: sessionID,
		user:      user,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		mode:      modeBusy,
		search:    search,
		remarks:   remarks,
		searches:  searches,
		status:    "loading session...",
	}
	m.debounce = debounce.New(searchDelay, func(term string) {
		// Keep only the newest term if the screen has not drained the last one.
		select {
		case <-searches:
		default:
		}
		searches <- term
	})
	return m
}

// Init opens the session and starts listening for search input.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.openCmd(), m.waitForSearch())
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case rosterMsg:
		return m.applyRoster(msg)

	case submittedMsg:
		if msg.err != nil {
			m.mode = modeBrowse
			m.err = submitErrorText(msg.err)
			m.status = ""
			return m, nil
		}
		m.status = "Attendance saved successfully!"
		m.done = true
		return m, tea.Quit

	case cancelledMsg:
		m.done = true
		return m, tea.Quit

	case searchMsg:
		// Terms that arrive after the box closed were already superseded.
		if m.mode == modeSearch {
			m.query = msg.term
			m.refilter()
		}
		return m, m.waitForSearch()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) applyRoster(msg rosterMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeBusy {
		m.mode = modeBrowse
	}
	if msg.err != nil {
		m.err = msg.err.Error()
		if m.roster == nil {
			m.status = ""
			if errors.As(msg.err, new(*attendance.ExistingRecordFetchError)) {
				m.err = "Failed to load existing attendance"
			}
		}
		return m, nil
	}
	m.err = ""
	m.status = msg.status
	m.roster = msg.roster
	if msg.roster.Notice != "" {
		m.err = msg.roster.Notice
	}
	m.refilter()
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeRemarks:
		return m.handleRemarksKey(msg)
	case modeBusy:
		return m, nil
	}

	if m.roster != nil && m.roster.Pending != nil {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m, m.resolveCmd(m.roster.Pending.ID, true)
		case key.Matches(msg, m.keys.Decline), key.Matches(msg, m.keys.Escape):
			return m, m.resolveCmd(m.roster.Pending.ID, false)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if row, ok := m.selected(); ok {
			return m, m.toggleCmd(row.StudentID)
		}
	case key.Matches(msg, m.keys.Remarks):
		if row, ok := m.selected(); ok {
			m.mode = modeRemarks
			m.remarks.SetValue(row.Remarks)
			m.remarks.CursorEnd()
			return m, m.remarks.Focus()
		}
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.AllPresent):
		return m, m.markAllCmd(true)
	case key.Matches(msg, m.keys.AllAbsent):
		return m, m.markAllCmd(false)
	case key.Matches(msg, m.keys.Submit):
		if m.roster == nil || len(m.roster.Rows) == 0 {
			m.err = "No eligible students found for this session."
			return m, nil
		}
		m.mode = modeBusy
		m.status = "saving attendance..."
		m.err = ""
		return m, m.submitCmd()
	case key.Matches(msg, m.keys.Escape):
		return m, m.cancelCmd()
	}
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Enter):
		m.mode = modeBrowse
		m.search.Blur()
		// Apply at once instead of waiting for the debounce.
		m.debounce.Stop()
		select {
		case <-m.searches:
		default:
		}
		m.query = m.search.Value()
		m.refilter()
		return m, nil
	}
	var cmd tea.Cmd
	before := m.search.Value()
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.debounce.Trigger(v)
	}
	return m, cmd
}

func (m *Model) handleRemarksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = modeBrowse
		m.remarks.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		m.mode = modeBrowse
		m.remarks.Blur()
		if row, ok := m.selected(); ok {
			return m, m.remarksCmd(row.StudentID, m.remarks.Value())
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.remarks, cmd = m.remarks.Update(msg)
	return m, cmd
}

func (m *Model) refilter() {
	if m.roster == nil {
		m.visible = nil
		return
	}
	m.visible = attendance.Filter(m.roster.Rows, m.query)
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selected() (attendance.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return attendance.Row{}, false
	}
	return m.visible[m.cursor], true
}

// Done reports whether the session ended by submit or cancel.
func (m *Model) Done() bool { return m.done }

// Commands

func (m *Model) waitForSearch() tea.Cmd {
	return func() tea.Msg {
		return searchMsg{term: <-m.searches}
	}
}

func (m *Model) openCmd() tea.Cmd {
	return func() tea.Msg {
		r, err := m.desk.Open(context.Background(), m.sessionID)
		status := ""
		if r != nil && r.Mode == attendance.ModeEdit {
			status = "editing attendance taken earlier"
		}
		return rosterMsg{roster: r, status: status, err: err}
	}
}

func (m *Model) toggleCmd(studentID string) tea.Cmd {
	return func() tea.Msg {
		r, pending, err := m.desk.Toggle(context.Background(), m.sessionID, studentID)
		return rosterMsg{roster: r, pending: pending, err: err}
	}
}

func (m *Model) remarksCmd(studentID, text string) tea.Cmd {
	return func() tea.Msg {
		r, err := m.desk.SetRemarks(context.Background(), m.sessionID, studentID, text)
		return rosterMsg{roster: r, err: err}
	}
}

func (m *Model) markAllCmd(present bool) tea.Cmd {
	return func() tea.Msg {
		r, pending, err := m.desk.MarkAll(context.Background(), m.sessionID, present)
		return rosterMsg{roster: r, pending: pending, err: err}
	}
}

func (m *Model) resolveCmd(actionID string, confirm bool) tea.Cmd {
	return func() tea.Msg {
		r, _, err := m.desk.Resolve(context.Background(), m.sessionID, actionID, confirm)
		return rosterMsg{roster: r, err: err}
	}
}

func (m *Model) submitCmd() tea.Cmd {
	return func() tea.Msg {
		return submittedMsg{err: m.desk.Submit(context.Background(), m.sessionID, m.user)}
	}
}

func (m *Model) cancelCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.desk.Cancel(context.Background(), m.sessionID)
		return cancelledMsg{}
	}
}

func submitErrorText(err error) string {
	var subErr *attendance.SubmissionError
	if errors.As(err, &subErr) {
		return subErr.Message()
	}
	if errors.Is(err, attendance.ErrEmptyRoster) {
		return "No eligible students found for this session."
	}
	return err.Error()
}

// View renders the screen.
func (m *Model) View() string {
	var b strings.Builder

	title := "Take Attendance"
	if m.roster != nil && m.roster.Mode == attendance.ModeEdit {
		title = "Edit Attendance"
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s · session %s", title, m.sessionID)))
	b.WriteString("\n")

	if m.roster != nil {
		c := m.roster.Counts()
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			presentStyle.Render(fmt.Sprintf("Present: %d", c.Present)),
			absentStyle.Render(fmt.Sprintf("Absent: %d", c.Absent)),
			mutedStyle.Render(fmt.Sprintf("Total: %d", c.Total))))
		if m.roster.OverLimitPresent() {
			b.WriteString(warningStyle.Render("Warning: you are marking students as present who have exceeded their session limit."))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	switch {
	case m.roster == nil:
	case len(m.roster.Rows) == 0:
		b.WriteString(mutedStyle.Render("No eligible students found for this session."))
		b.WriteString("\n")
	case len(m.visible) == 0:
		b.WriteString(mutedStyle.Render(fmt.Sprintf("No students match %q.", m.query)))
		b.WriteString("\n")
	default:
		for i, row := range m.visible {
			b.WriteString(m.renderRow(i, row))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	switch {
	case m.roster != nil && m.roster.Pending != nil:
		b.WriteString(promptStyle.Render(m.roster.Pending.Prompt + " [y/n]"))
		b.WriteString("\n")
	case m.mode == modeSearch:
		b.WriteString(m.search.View())
		b.WriteString("\n")
	case m.mode == modeRemarks:
		b.WriteString(m.remarks.View())
		b.WriteString("\n")
	case m.query != "":
		b.WriteString(mutedStyle.Render("filter: " + m.query))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(mutedStyle.Render(m.status))
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) renderRow(i int, row attendance.Row) string {
	cursor := "  "
	if i == m.cursor {
		cursor = cursorStyle.Render("> ")
	}
	mark := absentStyle.Render("[NO ]")
	if row.IsPresent {
		mark = presentStyle.Render("[YES]")
	}
	line := fmt.Sprintf("%s%s %-24s %-8s %s",
		cursor, mark, row.StudentName, row.RollNo,
		mutedStyle.Render(fmt.Sprintf("%d/%d", row.AttendedSessions, row.AllowedSessions)))
	if row.IsOverLimit {
		line += " " + overLimitTag
	}
	if row.Remarks != "" {
		line += " " + mutedStyle.Render("· "+row.Remarks)
	}
	return line
}

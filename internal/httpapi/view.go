package httpapi

import "rollcall/internal/attendance"

// rosterView is the JSON shape of a roster. Counts always cover the whole
// roster, even when Rows is narrowed by a search.
type rosterView struct {
	ID               string                    `json:"id"`
	SessionID        string                    `json:"session_id"`
	Mode             attendance.Mode           `json:"mode"`
	State            attendance.State          `json:"state"`
	Rows             []attendance.Row          `json:"rows"`
	Counts           attendance.Counts         `json:"counts"`
	OverLimitPresent bool                      `json:"over_limit_present"`
	Pending          *attendance.PendingAction `json:"pending,omitempty"`
	Notice           string                    `json:"notice,omitempty"`
	Query            string                    `json:"query,omitempty"`
	Applied          *bool                     `json:"applied,omitempty"`
}

func newRosterView(r *attendance.Roster, query string) rosterView {
	rows := attendance.Filter(r.Rows, query)
	if rows == nil {
		rows = []attendance.Row{}
	}
	return rosterView{
		ID:               r.ID,
		SessionID:        r.SessionID,
		Mode:             r.Mode,
		State:            r.State,
		Rows:             rows,
		Counts:           r.Counts(),
		OverLimitPresent: r.OverLimitPresent(),
		Pending:          r.Pending,
		Notice:           r.Notice,
		Query:            query,
	}
}

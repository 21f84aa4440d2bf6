package attendance

import "time"

// EligibleStudent is a student entitled to be marked for the current period.
// It is read-only input to Reconcile.
type EligibleStudent struct {
	StudentID        string `json:"studentId"`
	StudentName      string `json:"studentName"`
	RollNo           string `json:"rollNo"`
	StudentEmail     string `json:"studentEmail"`
	AttendedSessions int    `json:"attendedSessions"`
	AllowedSessions  int    `json:"allowedSessions"`
	IsOverLimit      bool   `json:"isOverLimit"`
}

// ExistingRecord is a mark submitted earlier for the same session.
type ExistingRecord struct {
	StudentID string `json:"studentId"`
	IsPresent bool   `json:"isPresent"`
	Remarks   string `json:"remarks"`
}

// Row is the working record for one student while a session is being marked.
// Only IsPresent and Remarks change after reconciliation.
type Row struct {
	EligibleStudent
	IsPresent bool   `json:"isPresent"`
	Remarks   string `json:"remarks"`
}

// Mark is one entry of the submission payload.
type Mark struct {
	StudentID string `json:"studentId"`
	IsPresent bool   `json:"isPresent"`
	Remarks   string `json:"remarks"`
}

// Submission is the wire payload sent to the attendance endpoint.
type Submission struct {
	SessionID      string `json:"sessionId"`
	AttendanceList []Mark `json:"attendanceList"`
}

// Counts are derived from the rows on demand and never stored.
type Counts struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Total   int `json:"total"`
}

// Session is a scheduled class meeting as listed by the academy API.
type Session struct {
	ID              string `json:"id"`
	Topic           string `json:"topic"`
	SessionDate     string `json:"sessionDate"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	Status          string `json:"status"`
	TotalStudents   int    `json:"totalStudents"`
	PresentCount    int    `json:"presentCount"`
	AbsentCount     int    `json:"absentCount"`
	AttendanceTaken bool   `json:"attendanceTaken"`
}

// SessionPage is one page of sessions.
type SessionPage struct {
	Content       []Session `json:"content"`
	Number        int       `json:"number"`
	Size          int       `json:"size"`
	TotalElements int       `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
}

// Submitted describes a batch the academy API accepted.
type Submitted struct {
	SessionID   string    `json:"sessionId"`
	RosterID    string    `json:"rosterId"`
	SubmittedBy string    `json:"submittedBy"`
	Mode        Mode      `json:"mode"`
	Counts      Counts    `json:"counts"`
	Marks       []Mark    `json:"marks"`
	SubmittedAt time.Time `json:"submittedAt"`
}

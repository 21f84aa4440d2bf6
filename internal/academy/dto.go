package academy

import (
	"bytes"
	"encoding/json"
	"fmt"

	"rollcall/internal/attendance"
)

// looseID accepts identifiers sent as JSON strings or numbers.
type looseID string

func (l *looseID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = looseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("academy: id %s is neither string nor number", string(b))
	}
	*l = looseID(n.String())
	return nil
}

type studentDTO struct {
	StudentID        looseID `json:"studentId" validate:"required"`
	StudentName      string  `json:"studentName"`
	RollNo           looseID `json:"rollNo"`
	StudentEmail     string  `json:"studentEmail"`
	AttendedSessions int     `json:"attendedSessions" validate:"gte=0"`
	AllowedSessions  int     `json:"allowedSessions" validate:"gte=0"`
	IsOverLimit      bool    `json:"isOverLimit"`
}

func (s studentDTO) toStudent() attendance.EligibleStudent {
	return attendance.EligibleStudent{
		StudentID:        string(s.StudentID),
		StudentName:      s.StudentName,
		RollNo:           string(s.RollNo),
		StudentEmail:     s.StudentEmail,
		AttendedSessions: s.AttendedSessions,
		AllowedSessions:  s.AllowedSessions,
		IsOverLimit:      s.IsOverLimit,
	}
}

type recordDTO struct {
	StudentID looseID `json:"studentId" validate:"required"`
	IsPresent bool    `json:"isPresent"`
	Remarks   string  `json:"remarks"`
}

type sessionDTO struct {
	ID              looseID `json:"id"`
	Topic           string  `json:"topic"`
	SessionDate     string  `json:"sessionDate"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	Status          string  `json:"status"`
	TotalStudents   int     `json:"totalStudents"`
	PresentCount    int     `json:"presentCount"`
	AbsentCount     int     `json:"absentCount"`
	AttendanceTaken bool    `json:"attendanceTaken"`
}

func (s sessionDTO) toSession() attendance.Session {
	return attendance.Session{
		ID:              string(s.ID),
		Topic:           s.Topic,
		SessionDate:     s.SessionDate,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		Status:          s.Status,
		TotalStudents:   s.TotalStudents,
		PresentCount:    s.PresentCount,
		AbsentCount:     s.AbsentCount,
		AttendanceTaken: s.AttendanceTaken,
	}
}

type logDTO struct {
	ID                    looseID `json:"id"`
	SessionID             looseID `json:"sessionId"`
	SessionDate           string  `json:"sessionDate"`
	Status                string  `json:"status"`
	SessionCountThisMonth int     `json:"sessionCountThisMonth"`
	IsOverLimit           bool    `json:"isOverLimit"`
	Remarks               string  `json:"remarks"`
}

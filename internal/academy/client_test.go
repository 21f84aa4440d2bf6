package academy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"rollcall/internal/attendance"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "secret-token", 0)
}

func TestEligibleStudentsDecodesLooseIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/attendance/eligible-students" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("authorization = %q", got)
		}
		w.Write([]byte(`[
			{"studentId": 42, "studentName": "Asha Rao", "rollNo": 101, "studentEmail": "asha@studio.test",
			 "attendedSessions": 8, "allowedSessions": 8, "isOverLimit": true},
			{"studentId": "s-7", "studentName": "Ben Ito", "rollNo": "ART-7", "attendedSessions": 1, "allowedSessions": 4}
		]`))
	})

	got, err := c.EligibleStudents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []attendance.EligibleStudent{
		{StudentID: "42", StudentName: "Asha Rao", RollNo: "101", StudentEmail: "asha@studio.test",
			AttendedSessions: 8, AllowedSessions: 8, IsOverLimit: true},
		{StudentID: "s-7", StudentName: "Ben Ito", RollNo: "ART-7", AttendedSessions: 1, AllowedSessions: 4},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d students", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("student %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestEligibleStudentsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing id", `[{"studentName": "nobody"}]`},
		{"negative count", `[{"studentId": 1, "attendedSessions": -1}]`},
		{"bad id type", `[{"studentId": true}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			if _, err := c.EligibleStudents(context.Background()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSessionAttendance(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/17/with-attendance" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"id": 17, "attendanceRecords": [{"studentId": 42, "isPresent": false, "remarks": "sick"}]}`))
	})

	got, err := c.SessionAttendance(context.Background(), "17")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != (attendance.ExistingRecord{StudentID: "42", IsPresent: false, Remarks: "sick"}) {
		t.Fatalf("records = %+v", got)
	}
}

func TestMarkAttendanceSendsPayload(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/attendance/mark" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	})

	sub := attendance.Submission{
		SessionID:      "17",
		AttendanceList: []attendance.Mark{{StudentID: "42", IsPresent: true, Remarks: ""}},
	}
	if err := c.MarkAttendance(context.Background(), sub); err != nil {
		t.Fatal(err)
	}
	if got["sessionId"] != "17" {
		t.Fatalf("sessionId = %v", got["sessionId"])
	}
	list, _ := got["attendanceList"].([]any)
	if len(list) != 1 {
		t.Fatalf("attendanceList = %v", got["attendanceList"])
	}
	entry := list[0].(map[string]any)
	if len(entry) != 3 || entry["studentId"] != "42" || entry["isPresent"] != true {
		t.Fatalf("entry = %v", entry)
	}
}

func TestMarkAttendanceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "Session is already closed"}`))
	})

	err := c.MarkAttendance(context.Background(), attendance.Submission{SessionID: "17"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.UserMessage() != "Session is already closed" {
		t.Fatalf("apiErr = %+v", apiErr)
	}

	subErr := &attendance.SubmissionError{SessionID: "17", Err: err}
	if subErr.Message() != "Session is already closed" {
		t.Fatalf("message = %q", subErr.Message())
	}
}

func TestMarkAttendanceRequiresSession(t *testing.T) {
	c := New("http://127.0.0.1:0", "", 0)
	if err := c.MarkAttendance(context.Background(), attendance.Submission{}); !errors.Is(err, attendance.ErrMissingSession) {
		t.Fatalf("err = %v", err)
	}
}

func TestListSessionsDefaults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query(); q.Get("page") != "0" || q.Get("size") != "20" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"content": [{"id": 3, "topic": "Still life", "attendanceTaken": true}]}`))
	})

	page, err := c.ListSessions(context.Background(), -1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if page.Size != 20 || page.TotalPages != 1 || len(page.Content) != 1 {
		t.Fatalf("page = %+v", page)
	}
	if s := page.Content[0]; s.ID != "3" || !s.AttendanceTaken {
		t.Fatalf("session = %+v", s)
	}
}

func TestAttendanceLogs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/attendance/logs/42" || r.URL.Query().Get("month") != "3" {
			t.Errorf("url = %s", r.URL)
		}
		w.Write([]byte(`[{"id": 1, "sessionId": 9, "status": "present"}]`))
	})

	logs, err := c.AttendanceLogs(context.Background(), "42", 2026, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Status != attendance.StatusPresent || logs[0].SessionID != "9" {
		t.Fatalf("logs = %+v", logs)
	}
	if _, err := c.AttendanceLogs(context.Background(), "42", 2026, 13); err == nil {
		t.Fatal("month 13 accepted")
	}
}

func TestIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such session", http.StatusNotFound)
	})
	_, err := c.GetSession(context.Background(), "404")
	if !IsNotFound(err) {
		t.Fatalf("err = %v", err)
	}
	var apiErr *APIError
	errors.As(err, &apiErr)
	if apiErr.Message != "no such session" {
		t.Fatalf("message = %q", apiErr.Message)
	}
}

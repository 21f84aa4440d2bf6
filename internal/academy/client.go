// Package academy is the client for the art-academy REST API, the system of
// record for sessions, eligibility and attendance marks.
package academy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"rollcall/internal/attendance"
	"rollcall/internal/metrics"
)

// APIError is a non-2xx response from the academy API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("academy api error %d", e.Status)
	}
	return fmt.Sprintf("academy api error %d: %s", e.Status, e.Message)
}

// UserMessage is the server-provided message, if any.
func (e *APIError) UserMessage() string { return e.Message }

// IsNotFound reports whether err is a 404 from the academy API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client calls the academy API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client

	validate *validator.Validate
}

// New creates a client. A zero timeout leaves the transport default in place.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Token:    token,
		HTTP:     &http.Client{Timeout: timeout},
		validate: validator.New(),
	}
}

// GetSession returns one session.
func (c *Client) GetSession(ctx context.Context, sessionID string) (attendance.Session, error) {
	var out sessionDTO
	if err := c.do(ctx, "get_session", http.MethodGet, "/api/sessions/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return attendance.Session{}, err
	}
	return out.toSession(), nil
}

// ListSessions returns one page of sessions. Page is zero-based.
func (c *Client) ListSessions(ctx context.Context, page, size int) (attendance.SessionPage, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var out struct {
		Content       []sessionDTO `json:"content"`
		Number        int          `json:"number"`
		Size          int          `json:"size"`
		TotalElements int          `json:"totalElements"`
		TotalPages    int          `json:"totalPages"`
	}
	if err := c.do(ctx, "list_sessions", http.MethodGet, "/api/sessions?"+q.Encode(), nil, &out); err != nil {
		return attendance.SessionPage{}, err
	}

	res := attendance.SessionPage{
		Content:       make([]attendance.Session, 0, len(out.Content)),
		Number:        out.Number,
		Size:          out.Size,
		TotalElements: out.TotalElements,
		TotalPages:    out.TotalPages,
	}
	if res.Size == 0 {
		res.Size = size
	}
	if res.TotalPages == 0 {
		res.TotalPages = 1
	}
	for _, s := range out.Content {
		res.Content = append(res.Content, s.toSession())
	}
	return res, nil
}

// EligibleStudents returns the students entitled to attend this period.
func (c *Client) EligibleStudents(ctx context.Context) ([]attendance.EligibleStudent, error) {
	var out []studentDTO
	if err := c.do(ctx, "eligible_students", http.MethodGet, "/api/attendance/eligible-students", nil, &out); err != nil {
		return nil, err
	}
	students := make([]attendance.EligibleStudent, 0, len(out))
	for i, s := range out {
		if err := c.validate.Struct(s); err != nil {
			return nil, fmt.Errorf("academy: eligible student %d invalid: %w", i, err)
		}
		students = append(students, s.toStudent())
	}
	return students, nil
}

// SessionAttendance returns the marks already recorded for a session.
func (c *Client) SessionAttendance(ctx context.Context, sessionID string) ([]attendance.ExistingRecord, error) {
	var out struct {
		AttendanceRecords []recordDTO `json:"attendanceRecords"`
	}
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/with-attendance"
	if err := c.do(ctx, "session_attendance", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	records := make([]attendance.ExistingRecord, 0, len(out.AttendanceRecords))
	for i, r := range out.AttendanceRecords {
		if err := c.validate.Struct(r); err != nil {
			return nil, fmt.Errorf("academy: attendance record %d invalid: %w", i, err)
		}
		records = append(records, attendance.ExistingRecord{
			StudentID: string(r.StudentID),
			IsPresent: r.IsPresent,
			Remarks:   r.Remarks,
		})
	}
	return records, nil
}

// MarkAttendance submits a whole session's marks.
func (c *Client) MarkAttendance(ctx context.Context, sub attendance.Submission) error {
	if sub.SessionID == "" {
		return attendance.ErrMissingSession
	}
	return c.do(ctx, "mark_attendance", http.MethodPost, "/api/attendance/mark", sub, nil)
}

// AttendanceLogs returns a student's attendance for one month.
func (c *Client) AttendanceLogs(ctx context.Context, studentID string, year, month int) ([]attendance.LogEntry, error) {
	if studentID == "" {
		return nil, fmt.Errorf("academy: student id required")
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("academy: month %d out of range", month)
	}
	path := fmt.Sprintf("/api/attendance/logs/%s?year=%d&month=%d", url.PathEscape(studentID), year, month)
	var out []logDTO
	if err := c.do(ctx, "attendance_logs", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	logs := make([]attendance.LogEntry, 0, len(out))
	for _, l := range out {
		logs = append(logs, attendance.LogEntry{
			ID:                    string(l.ID),
			SessionID:             string(l.SessionID),
			SessionDate:           l.SessionDate,
			Status:                strings.ToUpper(l.Status),
			SessionCountThisMonth: l.SessionCountThisMonth,
			IsOverLimit:           l.IsOverLimit,
			Remarks:               l.Remarks,
		})
	}
	return logs, nil
}

// Health checks that the academy API answers.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/actuator/health", nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.UpstreamLatency.WithLabelValues(op, metrics.Outcome(err)).Observe(time.Since(start).Seconds())
	}()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("academy: encode %s request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("academy: %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("academy: decode %s response: %w", op, err)
	}
	return nil
}

// errorMessage pulls a readable message out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

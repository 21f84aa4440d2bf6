package attendance

import (
	"errors"
	"fmt"
)

var (
	ErrNotLoaded       = errors.New("attendance: roster not loaded")
	ErrSubmitting      = errors.New("attendance: submission in progress")
	ErrUnknownStudent  = errors.New("attendance: student not on roster")
	ErrNoPendingAction = errors.New("attendance: no such pending action")
	ErrEmptyRoster     = errors.New("attendance: no eligible students to submit")
	ErrMissingSession  = errors.New("attendance: session id required")
	ErrRosterNotFound  = errors.New("attendance: no open roster for session")
)

// NoticeEligibilityFailed is shown on a roster opened without its student list.
const NoticeEligibilityFailed = "failed to load student list"

// EligibilityFetchError wraps a failed eligible-student read.
type EligibilityFetchError struct {
	Err error
}

func (e *EligibilityFetchError) Error() string {
	return fmt.Sprintf("attendance: load eligible students: %v", e.Err)
}

func (e *EligibilityFetchError) Unwrap() error { return e.Err }

// ExistingRecordFetchError wraps a failed read of an earlier submission.
// The session is not opened when this happens.
type ExistingRecordFetchError struct {
	SessionID string
	Err       error
}

func (e *ExistingRecordFetchError) Error() string {
	return fmt.Sprintf("attendance: load existing attendance for session %s: %v", e.SessionID, e.Err)
}

func (e *ExistingRecordFetchError) Unwrap() error { return e.Err }

// SubmissionError wraps a rejected or failed submission. The roster it came
// from is left loaded with every edit intact.
type SubmissionError struct {
	SessionID string
	Err       error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("attendance: submit session %s: %v", e.SessionID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Message is the text to show the user. Upstream errors that carry a
// server-provided message are preferred over the raw error string.
func (e *SubmissionError) Message() string {
	var um interface{ UserMessage() string }
	if errors.As(e.Err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return "failed to submit attendance"
}

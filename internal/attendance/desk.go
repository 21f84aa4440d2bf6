package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rollcall/internal/metrics"
)

// outcomeTimeout bounds recording a submission outcome after the upstream call.
const outcomeTimeout = 5 * time.Second

// Source reads what a marking session starts from.
type Source interface {
	GetSession(ctx context.Context, sessionID string) (Session, error)
	EligibleStudents(ctx context.Context) ([]EligibleStudent, error)
	SessionAttendance(ctx context.Context, sessionID string) ([]ExistingRecord, error)
}

// Upstream is the academy API as the desk sees it.
type Upstream interface {
	Source
	Marker
}

// Publisher announces accepted submissions.
type Publisher interface {
	PublishSubmitted(ctx context.Context, evt Submitted) error
}

// Desk owns the rosters of every open marking session, one per session id.
// Operations on the same session are serialized.
type Desk struct {
	upstream  Upstream
	store     Store
	publisher Publisher
	log       *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// DeskOption configures a Desk.
type DeskOption func(*Desk)

// WithPublisher sets where accepted submissions are announced.
func WithPublisher(p Publisher) DeskOption {
	return func(d *Desk) { d.publisher = p }
}

// WithLogger sets the desk logger.
func WithLogger(l *zap.Logger) DeskOption {
	return func(d *Desk) { d.log = l }
}

// NewDesk creates a desk over the academy API and a roster store.
func NewDesk(up Upstream, store Store, opts ...DeskOption) *Desk {
	d := &Desk{
		upstream: up,
		store:    store,
		log:      zap.NewNop(),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open starts marking a session, replacing any roster already open for it.
// Sessions with attendance already taken are opened in edit mode and merge
// the earlier marks; both reads complete before reconciliation. A failed
// student list still opens the roster, empty and with a notice.
func (d *Desk) Open(ctx context.Context, sessionID string) (*Roster, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	sess, err := d.upstream.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("attendance: load session %s: %w", sessionID, err)
	}
	mode := ModeNew
	if sess.AttendanceTaken {
		mode = ModeEdit
	}

	var (
		eligible []EligibleStudent
		eligErr  error
		existing []ExistingRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		eligible, eligErr = d.upstream.EligibleStudents(gctx)
		return nil
	})
	if mode == ModeEdit {
		g.Go(func() error {
			recs, err := d.upstream.SessionAttendance(gctx, sessionID)
			if err != nil {
				return &ExistingRecordFetchError{SessionID: sessionID, Err: err}
			}
			if recs == nil {
				recs = []ExistingRecord{}
			}
			existing = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		d.log.Warn("open roster failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	roster := NewRoster(sessionID, mode, nil)
	if eligErr != nil {
		d.log.Warn("eligible students unavailable", zap.String("session_id", sessionID),
			zap.Error(&EligibilityFetchError{Err: eligErr}))
		roster.Notice = NoticeEligibilityFailed
	} else {
		roster.Rows = Reconcile(eligible, existing)
		for _, s := range eligible {
			if limitDisagrees(s) {
				d.log.Warn("over-limit flag disagrees with session counts",
					zap.String("student_id", s.StudentID),
					zap.Int("attended", s.AttendedSessions),
					zap.Int("allowed", s.AllowedSessions))
			}
		}
		if dropped := Dropped(eligible, existing); len(dropped) > 0 {
			d.log.Info("earlier marks dropped for students no longer eligible",
				zap.String("session_id", sessionID), zap.Int("count", len(dropped)))
		}
	}

	unlock := d.lock(sessionID)
	defer unlock()
	if err := d.store.Save(ctx, roster); err != nil {
		return nil, err
	}
	metrics.RostersOpened.WithLabelValues(string(mode)).Inc()
	d.log.Info("roster opened", zap.String("session_id", sessionID), zap.String("mode", string(mode)),
		zap.Int("rows", len(roster.Rows)))
	return roster.Clone(), nil
}

// Get returns the open roster of a session.
func (d *Desk) Get(ctx context.Context, sessionID string) (*Roster, error) {
	unlock := d.lock(sessionID)
	defer unlock()
	return d.store.Load(ctx, sessionID)
}

// Toggle flips one student's mark, or returns the confirmation it waits on.
func (d *Desk) Toggle(ctx context.Context, sessionID, studentID string) (*Roster, *PendingAction, error) {
	var pending *PendingAction
	r, err := d.mutate(ctx, sessionID, func(r *Roster) (err error) {
		pending, err = r.Toggle(studentID)
		return err
	})
	return r, pending, err
}

// SetRemarks replaces one student's remarks.
func (d *Desk) SetRemarks(ctx context.Context, sessionID, studentID, text string) (*Roster, error) {
	return d.mutate(ctx, sessionID, func(r *Roster) error {
		return r.SetRemarks(studentID, text)
	})
}

// MarkAll marks every student; marking all present waits on a confirmation.
func (d *Desk) MarkAll(ctx context.Context, sessionID string, present bool) (*Roster, *PendingAction, error) {
	var pending *PendingAction
	r, err := d.mutate(ctx, sessionID, func(r *Roster) (err error) {
		pending, err = r.MarkAll(present)
		return err
	})
	return r, pending, err
}

// MarkAllPresent is MarkAll(true).
func (d *Desk) MarkAllPresent(ctx context.Context, sessionID string) (*Roster, *PendingAction, error) {
	return d.MarkAll(ctx, sessionID, true)
}

// MarkAllAbsent is MarkAll(false).
func (d *Desk) MarkAllAbsent(ctx context.Context, sessionID string) (*Roster, error) {
	r, _, err := d.MarkAll(ctx, sessionID, false)
	return r, err
}

// Resolve confirms or declines the pending action of a session.
func (d *Desk) Resolve(ctx context.Context, sessionID, actionID string, confirm bool) (*Roster, bool, error) {
	var applied bool
	r, err := d.mutate(ctx, sessionID, func(r *Roster) (err error) {
		kind := ""
		if r.Pending != nil {
			kind = string(r.Pending.Kind)
		}
		applied, err = r.Resolve(actionID, confirm)
		if err == nil {
			decision := "declined"
			if confirm {
				decision = "confirmed"
			}
			metrics.Confirmations.WithLabelValues(kind, decision).Inc()
		}
		return err
	})
	return r, applied, err
}

// Cancel discards a session's roster. A submission already in flight is not
// aborted; its outcome no longer touches any roster.
func (d *Desk) Cancel(ctx context.Context, sessionID string) error {
	unlock := d.lock(sessionID)
	defer unlock()
	if _, err := d.store.Load(ctx, sessionID); err != nil {
		return err
	}
	return d.store.Delete(ctx, sessionID)
}

// Submit sends the roster in one all-or-nothing call. The session lock is not
// held during the call; the roster stays in Submitting and refuses edits.
// On success the roster is discarded; on failure it returns to Loaded with
// every edit intact and a *SubmissionError is returned.
func (d *Desk) Submit(ctx context.Context, sessionID, submittedBy string) error {
	unlock := d.lock(sessionID)
	r, err := d.store.Load(ctx, sessionID)
	if err != nil {
		unlock()
		return err
	}
	sub, err := r.BeginSubmit()
	if err != nil {
		unlock()
		return err
	}
	if err := d.store.Save(ctx, r); err != nil {
		unlock()
		return err
	}
	counts := r.Counts()
	unlock()

	start := time.Now()
	markErr := d.upstream.MarkAttendance(ctx, sub)
	metrics.Submissions.WithLabelValues(metrics.Outcome(markErr)).Inc()

	// The outcome must land even if the caller went away mid-call.
	outCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), outcomeTimeout)
	defer cancel()

	if err := d.finish(outCtx, r.ID, sessionID, markErr); err != nil {
		d.log.Error("record submission outcome failed", zap.String("session_id", sessionID), zap.Error(err))
	}

	if markErr != nil {
		d.log.Warn("attendance submission failed", zap.String("session_id", sessionID),
			zap.Duration("took", time.Since(start)), zap.Error(markErr))
		return &SubmissionError{SessionID: sessionID, Err: markErr}
	}

	d.log.Info("attendance submitted", zap.String("session_id", sessionID),
		zap.Int("present", counts.Present), zap.Int("absent", counts.Absent))
	if d.publisher != nil {
		evt := Submitted{
			SessionID:   sessionID,
			RosterID:    r.ID,
			SubmittedBy: submittedBy,
			Mode:        r.Mode,
			Counts:      counts,
			Marks:       sub.AttendanceList,
			SubmittedAt: time.Now().UTC(),
		}
		if err := d.publisher.PublishSubmitted(outCtx, evt); err != nil {
			d.log.Warn("publish submission failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return nil
}

// finish applies the submission outcome to the roster it started from. A
// roster replaced or cancelled meanwhile is left alone.
func (d *Desk) finish(ctx context.Context, rosterID, sessionID string, markErr error) error {
	unlock := d.lock(sessionID)
	defer unlock()
	cur, err := d.store.Load(ctx, sessionID)
	if errors.Is(err, ErrRosterNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if cur.ID != rosterID {
		return nil
	}
	cur.FinishSubmit(markErr)
	if markErr == nil {
		return d.store.Delete(ctx, sessionID)
	}
	return d.store.Save(ctx, cur)
}

func (d *Desk) mutate(ctx context.Context, sessionID string, fn func(*Roster) error) (*Roster, error) {
	unlock := d.lock(sessionID)
	defer unlock()
	r, err := d.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		return nil, err
	}
	if err := d.store.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (d *Desk) lock(sessionID string) func() {
	d.mu.Lock()
	l, ok := d.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[sessionID] = l
	}
	d.mu.Unlock()
	l.Lock()
	return l.Unlock
}

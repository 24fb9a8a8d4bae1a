// Package scheduler owns the follow-up email sequence: it enqueues the three
// nurture emails when a lead is captured and delivers due ones on a periodic
// poll. Durability comes from treating "what is due" as a query over
// persisted rows rather than from in-memory timers — after a restart, any
// follow-up whose scheduled time has passed is picked up by the next poll
// with no rescheduling step.
//
// The scheduler is constructed explicitly in main and injected where contact
// capture happens; there is no package-level instance.
package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samsepassi/portfolio-backend/internal/db"
	"github.com/samsepassi/portfolio-backend/internal/email"
)

// SequenceStore persists the three-row nurture sequence atomically.
// *store.Store is the real implementation; tests use an in-memory stub.
type SequenceStore interface {
	CreateFollowUpSequence(ctx context.Context, contactID uuid.UUID, now time.Time) ([]db.FollowUp, error)
}

// FollowUpScheduler is the narrow interface the api package uses to hand off
// a captured contact and to read the loop state for the readiness probe.
// Keeping it here (not in api/) means api/ does not depend on the concrete
// Scheduler. In tests, any struct with these two methods satisfies it.
type FollowUpScheduler interface {
	ScheduleFollowUpSequence(ctx context.Context, contact db.Contact) error
	State() State
}

// State of the periodic poll loop. Process and Schedule work in any state —
// the state machine only governs the automatic timer.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateRunning       State = "running"
	StateStopped       State = "stopped"
)

// Config holds tuning parameters. All fields have sensible defaults if
// zero-valued; call DefaultConfig() to get them.
type Config struct {
	// PollInterval is how often pending follow-ups are processed. Default: 5m.
	PollInterval time.Duration

	// InitialDelay postpones the first poll after Initialize so it never
	// contends with process startup. Default: 2s.
	InitialDelay time.Duration

	// BatchTimeout is the context deadline for one full poll cycle, so a hung
	// transport call cannot stall the loop past the next tick. Default: 2m.
	BatchTimeout time.Duration
}

// DefaultConfig returns safe production defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Minute,
		InitialDelay: 2 * time.Second,
		BatchTimeout: 2 * time.Minute,
	}
}

// Scheduler enqueues and delivers the follow-up email sequence.
type Scheduler struct {
	q      db.Querier
	store  SequenceStore
	mailer email.Sender
	cfg    Config
	logger *slog.Logger

	// now is swapped out in tests to drive the due-time predicate.
	now func() time.Time

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}

	// inFlight serializes ProcessPendingEmails: the immediate post-schedule
	// trigger and the periodic tick may race, and a batch must not run twice
	// concurrently or a due job could be delivered by both.
	inFlight atomic.Bool
}

// New constructs a Scheduler. Call Initialize to start the periodic poll.
func New(q db.Querier, st SequenceStore, mailer email.Sender, cfg Config, logger *slog.Logger) *Scheduler {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = def.BatchTimeout
	}

	return &Scheduler{
		q:      q,
		store:  st,
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		state:  StateUninitialized,
	}
}

// ─── LIFECYCLE ────────────────────────────────────────────────────────────────

// Initialize starts the periodic poll loop. The first call transitions the
// scheduler to running; subsequent calls are no-ops. It performs no blocking
// I/O — the first poll happens InitialDelay later on the loop goroutine, so
// startup is never delayed by email processing.
func (s *Scheduler) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = StateRunning

	go s.loop(ctx)

	s.logger.Info("scheduler: started",
		"poll_interval", s.cfg.PollInterval,
		"initial_delay", s.cfg.InitialDelay,
	)
}

// Stop cancels the periodic poll loop and waits for it to exit. Idempotent
// and safe to call on a scheduler that was never initialized. An in-flight
// batch is allowed to finish; only future ticks are cancelled.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = StateStopped
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("scheduler: stopped")
}

// State reports the poll-loop state for the readiness probe.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// loop runs the initial delayed poll, then polls every PollInterval until
// ctx is cancelled.
func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.InitialDelay):
	}
	s.runBatch(ctx)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runBatch(ctx)
		}
	}
}

// runBatch executes one poll cycle with a deadline and logs any cycle-level
// failure. Used by the loop and the post-schedule immediate trigger.
func (s *Scheduler) runBatch(ctx context.Context) {
	batchCtx, cancel := context.WithTimeout(ctx, s.cfg.BatchTimeout)
	defer cancel()

	if err := s.ProcessPendingEmails(batchCtx); err != nil {
		s.logger.Error("scheduler: poll cycle failed", "error", err)
	}
}

// ─── SCHEDULING ───────────────────────────────────────────────────────────────

// ScheduleFollowUpSequence enqueues the welcome, 3-day, and 7-day emails for
// a freshly captured contact, then runs one immediate poll cycle so the
// welcome email (due right now) is not held until the next periodic tick.
//
// A store failure is returned to the caller, who must log and swallow it:
// lead capture is higher-value than follow-up email, so the contact-capture
// request succeeds regardless.
func (s *Scheduler) ScheduleFollowUpSequence(ctx context.Context, contact db.Contact) error {
	followUps, err := s.store.CreateFollowUpSequence(ctx, contact.ID, s.now())
	if err != nil {
		return fmt.Errorf("scheduler: schedule sequence for %s: %w", contact.ID, err)
	}

	s.logger.Info("scheduler: follow-up sequence scheduled",
		"contact_id", contact.ID,
		"email", contact.Email,
		"jobs", len(followUps),
	)

	s.runBatch(ctx)
	return nil
}

// ─── DELIVERY ─────────────────────────────────────────────────────────────────

// ProcessPendingEmails runs one poll cycle: query every due, unsent follow-up
// and attempt delivery in ascending scheduled_for order. Each attempt is
// isolated — one failure never aborts the rest of the batch. If a cycle is
// already in flight the call returns immediately; the due rows it would have
// seen are still pending and will be picked up by that cycle or the next one.
func (s *Scheduler) ProcessPendingEmails(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("scheduler: poll cycle already in flight, skipping")
		return nil
	}
	defer s.inFlight.Store(false)

	pending, err := s.q.ListPendingFollowUps(ctx, s.now())
	if err != nil {
		return fmt.Errorf("scheduler: list pending follow-ups: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	s.logger.Info("scheduler: processing pending follow-ups", "count", len(pending))

	for _, f := range pending {
		s.deliver(ctx, f)
	}
	return nil
}

// deliver attempts one follow-up. Outcomes:
//
//   - confirmed send       → MarkFollowUpSent (idempotent)
//   - transport error      → left pending, retried next cycle
//   - missing contact, no email address, corrupt kind
//     → MarkFollowUpFailed: the condition will never
//     self-resolve, so retrying forever only burns quota
//
// Panics are contained here so a single bad row cannot take down the batch.
func (s *Scheduler) deliver(ctx context.Context, f db.FollowUp) {
	log := s.logger.With("follow_up_id", f.ID, "kind", f.Kind, "contact_id", f.ContactID)

	defer func() {
		if p := recover(); p != nil {
			log.Error("scheduler: panic delivering follow-up", "panic", p)
		}
	}()

	contact, err := s.q.GetContactByID(ctx, f.ContactID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Error("scheduler: contact not found, marking follow-up failed")
			s.markFailed(ctx, f, "contact not found", log)
			return
		}
		// Transient lookup error: leave pending for the next cycle.
		log.Error("scheduler: contact lookup failed", "error", err)
		return
	}

	if contact.Email == "" {
		log.Error("scheduler: contact has no email address, marking follow-up failed")
		s.markFailed(ctx, f, "contact has no email address", log)
		return
	}

	name := contact.Name.String

	switch f.Kind {
	case db.KindWelcome:
		err = s.mailer.SendWelcome(ctx, contact.Email, name)
	case db.KindFollowUp3Day:
		err = s.mailer.SendFollowUp(ctx, contact.Email, name, 3)
	case db.KindFollowUp7Day:
		err = s.mailer.SendFollowUp(ctx, contact.Email, name, 7)
	default:
		// The kind check constraint should make this unreachable, but a row
		// edited by hand can still carry garbage.
		log.Error("scheduler: unknown follow-up kind, marking failed")
		s.markFailed(ctx, f, fmt.Sprintf("unknown kind %q", f.Kind), log)
		return
	}

	if err != nil {
		// Leave pending: the row stays eligible and is retried on the next
		// poll cycle. No backoff beyond the poll interval, no retry ceiling.
		log.Error("scheduler: send failed, will retry next cycle", "error", err)
		return
	}

	if err := s.q.MarkFollowUpSent(ctx, db.MarkFollowUpSentParams{ID: f.ID, SentAt: s.now()}); err != nil {
		// The email went out but the flag didn't stick — the next cycle will
		// resend. Accepted as a duplicate-send risk rather than a lost send.
		log.Error("scheduler: sent but failed to mark sent", "error", err)
		return
	}

	log.Info("scheduler: follow-up sent", "to", contact.Email)
}

func (s *Scheduler) markFailed(ctx context.Context, f db.FollowUp, reason string, log *slog.Logger) {
	if err := s.q.MarkFollowUpFailed(ctx, db.MarkFollowUpFailedParams{ID: f.ID, Reason: reason}); err != nil {
		log.Error("scheduler: failed to mark follow-up failed", "error", err)
	}
}

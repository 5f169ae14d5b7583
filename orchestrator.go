package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/clientdesk/messaging/lang"
	"github.com/clientdesk/messaging/model"
	"github.com/clientdesk/messaging/translator"
)

// Orchestrator drives every message that requires translation to a terminal
// translation status. It consumes insert events from the change feed and,
// as a durable fallback, sweeps the store for stale pending messages whose
// notification was missed (e.g. sent while no worker was running).
//
// Per message, the algorithm is:
//  1. Local dedup: skip IDs already in the in-flight set (notifications are
//     at-least-once, so duplicates are expected).
//  2. Store claim: conditional update PENDING → IN_PROGRESS; losing the race
//     to another instance means skipping, which makes the at-most-once
//     translation guarantee durable rather than process-local.
//  3. Resolve both participants' language preferences at translation time —
//     never cached, since a preference may change between send and
//     translation.
//  4. Same language → NOT_NEEDED, no provider call.
//  5. Otherwise call the provider: success → COMPLETED with translated body,
//     failure → FAILED. Provider failures are terminal until manually
//     requeued and are never surfaced to the sender; the original text was
//     already delivered.
//
// The in-flight entry is released on every exit path, so a failure mid-
// translation cannot permanently wedge an ID.
//
// Thread safety: safe for concurrent use.
type Orchestrator struct {
	messages   MessageRepository
	users      UserRepository
	translator translator.Translator
	feed       ChangeFeed
	inflight   *InflightSet
	logger     Logger
	batchSize  int
	staleAfter time.Duration
}

// Defaults for NewOrchestrator.
const (
	defaultBatchSize  = 100
	defaultStaleAfter = 30 * time.Second
)

// stuckClaimFactor scales staleAfter into the age at which an IN_PROGRESS
// claim is considered orphaned (crashed holder) and released by the sweep.
// Kept well above any plausible translation duration so a live claim is
// never stolen.
const stuckClaimFactor = 10

// NewOrchestrator creates a new translation orchestrator with the provided
// options.
//
// Required options:
//   - WithRepositories: message and user repositories
//   - WithTranslator: translation provider adapter
//   - WithLogger: logger instance
//
// Optional options:
//   - WithChangeFeed: change feed to consume insert events from and publish
//     update events to (without it, Run is sweep-only)
//   - WithInflightSet: custom dedup set (default: TTL set, 2m/1024)
//   - WithBatchSize: sweep batch size (default: 100)
//   - WithStaleAfter: minimum age before a pending message is swept (default: 30s)
//
// Example:
//
//	orch, err := messaging.NewOrchestrator(
//	    messaging.WithRepositories(messageRepo, userRepo),
//	    messaging.WithTranslator(provider),
//	    messaging.WithChangeFeed(feed),
//	    messaging.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go orch.Run(ctx, time.Minute)
func NewOrchestrator(opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		inflight:   NewInflightSet(0, 0),
		batchSize:  defaultBatchSize,
		staleAfter: defaultStaleAfter,
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply option", err)
		}
	}

	if o.messages == nil {
		return nil, NewError(ErrCodeConfiguration, "MessageRepository is required (use WithRepositories)")
	}
	if o.users == nil {
		return nil, NewError(ErrCodeConfiguration, "UserRepository is required (use WithRepositories)")
	}
	if o.translator == nil {
		return nil, NewError(ErrCodeConfiguration, "Translator is required (use WithTranslator)")
	}
	if o.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithLogger)")
	}

	return o, nil
}

// HandleEvent processes a single change-feed event. Non-insert events and
// messages that do not await translation are ignored. Duplicate deliveries of
// the same insert are absorbed by the in-flight set and the store claim.
//
// Returns an error only for store failures that left the message pending;
// provider failures are handled internally by marking the message FAILED.
func (o *Orchestrator) HandleEvent(ctx context.Context, event ChangeEvent) error {
	if event.Type != EventInsert {
		return nil
	}
	m := event.Message
	if !m.AwaitsTranslation() {
		return nil
	}
	return o.handleMessage(ctx, &m)
}

// handleMessage runs the dedup/claim/translate sequence for one message.
func (o *Orchestrator) handleMessage(ctx context.Context, m *model.Message) error {
	if !o.inflight.Add(m.ID) {
		o.logger.Debugf("Message %d already in flight, skipping duplicate notification", m.ID)
		return nil
	}
	defer o.inflight.Remove(m.ID)

	claimed, err := o.messages.ClaimPending(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("failed to claim message %d: %w", m.ID, err)
	}
	if !claimed {
		o.logger.Debugf("Message %d not claimable (already processed elsewhere)", m.ID)
		return nil
	}

	return o.translateClaimed(ctx, m)
}

// translateClaimed translates a message this instance has claimed. The claim
// is released back to PENDING on every store or directory failure, so a
// transient outage does not strand the message IN_PROGRESS; only a crash
// (recovered by the sweep's stuck-claim release) can leave the claim behind.
func (o *Orchestrator) translateClaimed(ctx context.Context, m *model.Message) error {
	sender, err := o.users.Lookup(ctx, m.SenderID)
	if err != nil && !IsNoData(err) {
		o.releaseClaim(ctx, m.ID)
		return fmt.Errorf("failed to look up sender %d: %w", m.SenderID, err)
	}
	recipient, err := o.users.Lookup(ctx, m.RecipientID)
	if err != nil && !IsNoData(err) {
		o.releaseClaim(ctx, m.ID)
		return fmt.Errorf("failed to look up recipient %d: %w", m.RecipientID, err)
	}

	// Unset or missing preferences fall back to the baseline code.
	senderLang := sender.PreferredLanguage(lang.Baseline)
	recipientLang := recipient.PreferredLanguage(lang.Baseline)

	if senderLang == recipientLang {
		if err := o.messages.UpdateTranslationStatus(ctx, m.ID, model.TranslationNotNeeded); err != nil {
			o.releaseClaim(ctx, m.ID)
			return fmt.Errorf("failed to mark message %d not_needed: %w", m.ID, err)
		}
		_ = m.MarkNotNeeded()
		o.logger.Debugf("Message %d needs no translation (both sides %s)", m.ID, senderLang)
		o.publishUpdate(ctx, m)
		return nil
	}

	translated, err := o.translator.Translate(ctx, m.Body, senderLang, recipientLang)
	if err != nil {
		// Terminal until manually requeued. The sender already got their
		// message through, so this is logged, never propagated.
		provErr := NewErrorWithCause(ErrCodeTranslation,
			fmt.Sprintf("provider failed for message %d (%s to %s)", m.ID, senderLang, recipientLang), err)
		o.logger.Errorf("Translation failed: %v", provErr)
		if updErr := o.messages.UpdateTranslationStatus(ctx, m.ID, model.TranslationFailed); updErr != nil {
			o.releaseClaim(ctx, m.ID)
			return fmt.Errorf("failed to mark message %d failed: %w", m.ID, updErr)
		}
		_ = m.MarkFailed()
		o.publishUpdate(ctx, m)
		return nil
	}

	if err := o.messages.UpdateTranslation(ctx, m.ID, translated, recipientLang); err != nil {
		o.releaseClaim(ctx, m.ID)
		return fmt.Errorf("failed to store translation for message %d: %w", m.ID, err)
	}
	_ = m.MarkCompleted(translated, recipientLang)

	o.logger.Infof("Translated message %d (%s→%s)", m.ID, senderLang, recipientLang)
	o.publishUpdate(ctx, m)
	return nil
}

// releaseClaim puts a claimed message back to PENDING so the next sweep or
// notification can retry it.
func (o *Orchestrator) releaseClaim(ctx context.Context, id int64) {
	if err := o.messages.UpdateTranslationStatus(ctx, id, model.TranslationPending); err != nil {
		o.logger.Errorf("Failed to release claim on message %d: %v", id, err)
	}
}

// publishUpdate notifies feed subscribers (thread views) that the message's
// translation state changed. Best-effort.
func (o *Orchestrator) publishUpdate(ctx context.Context, m *model.Message) {
	if o.feed == nil {
		return
	}
	if err := o.feed.Publish(ctx, ChangeEvent{Type: EventUpdate, Message: *m}); err != nil {
		o.logger.Warnf("Failed to publish update event for message %d: %v", m.ID, err)
	}
}

// SweepStalePending translates pending messages older than the configured
// stale threshold. This is the durable fallback for messages whose insert
// notification was never consumed.
//
// Before scanning, IN_PROGRESS claims older than stuckClaimFactor times the
// stale threshold are released back to PENDING: those are claims orphaned by
// a holder that crashed between claiming and writing its result, and no
// notification or retry can reach them otherwise.
//
// Returns the number of messages brought to a terminal status. Individual
// failures are logged and do not stop the batch.
func (o *Orchestrator) SweepStalePending(ctx context.Context) (int, error) {
	released, err := o.messages.ReleaseStuckClaims(ctx, o.staleAfter*stuckClaimFactor)
	if err != nil {
		o.logger.Errorf("Failed to release stuck claims: %v", err)
	} else if released > 0 {
		o.logger.Warnf("Released %d stuck in-progress claims back to pending", released)
	}

	stale, err := o.messages.FindStalePending(ctx, o.staleAfter, o.batchSize)
	if err != nil {
		if IsNoData(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to find stale pending messages: %w", err)
	}

	processed := 0
	for i := range stale {
		if err := o.handleMessage(ctx, &stale[i]); err != nil {
			o.logger.Errorf("Failed to process stale message %d: %v", stale[i].ID, err)
			continue
		}
		processed++
	}

	if processed > 0 {
		o.logger.Infof("Swept %d stale pending messages", processed)
	}
	return processed, nil
}

// RetryFailed requeues a failed message and immediately attempts its
// translation again. This is the manual-retry surface; nothing in the
// pipeline retries failures automatically.
//
// Returns a VALIDATION_ERROR if the message is not in FAILED state.
func (o *Orchestrator) RetryFailed(ctx context.Context, id int64) error {
	requeued, err := o.messages.RequeueFailed(ctx, id)
	if err != nil {
		return NewErrorWithCause(ErrCodeDatabase, "failed to requeue message", err)
	}
	if !requeued {
		return NewError(ErrCodeValidation, fmt.Sprintf("message %d is not in failed state", id))
	}

	m, err := o.messages.Load(ctx, id)
	if err != nil {
		return NewErrorWithCause(ErrCodeDatabase, "failed to load requeued message", err)
	}

	return o.handleMessage(ctx, &m)
}

// Run consumes the change feed and periodically sweeps stale pending
// messages until the context is canceled. Without a change feed configured it
// degrades to a pure polling worker.
//
// This method blocks and should typically be run in a goroutine.
//
// Example:
//
//	go orch.Run(ctx, time.Minute) // Sweep every minute
func (o *Orchestrator) Run(ctx context.Context, sweepInterval time.Duration) {
	var events <-chan ChangeEvent
	if o.feed != nil {
		ch, cancel := o.feed.Subscribe(0)
		defer cancel()
		events = ch
	}

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	o.logger.Info("Translation orchestrator started")

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("Translation orchestrator stopped")
			return
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := o.HandleEvent(ctx, event); err != nil {
				o.logger.Errorf("Failed to handle change event: %v", err)
			}
		case <-ticker.C:
			if _, err := o.SweepStalePending(ctx); err != nil {
				o.logger.Errorf("Sweep failed: %v", err)
			}
		}
	}
}

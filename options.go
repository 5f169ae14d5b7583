package messaging

import (
	"fmt"
	"time"

	"github.com/clientdesk/messaging/translator"
)

// Option is a function that configures an Orchestrator.
// Used with the Options Pattern for flexible service construction.
//
// Example:
//
//	orch, err := messaging.NewOrchestrator(
//	    messaging.WithRepositories(messageRepo, userRepo),
//	    messaging.WithTranslator(provider),
//	    messaging.WithLogger(logger),
//	    messaging.WithBatchSize(200), // optional
//	)
type Option func(*Orchestrator) error

// WithRepositories sets the required repository dependencies for the
// orchestrator. Both repositories are required and must not be nil.
//
// This is a required option for NewOrchestrator.
//
// Parameters:
//   - messageRepo: Message persistence
//   - userRepo: User directory lookups (language preferences)
func WithRepositories(messageRepo MessageRepository, userRepo UserRepository) Option {
	return func(o *Orchestrator) error {
		if messageRepo == nil {
			return fmt.Errorf("messageRepo cannot be nil")
		}
		if userRepo == nil {
			return fmt.Errorf("userRepo cannot be nil")
		}

		o.messages = messageRepo
		o.users = userRepo
		return nil
	}
}

// WithTranslator sets the translation provider adapter.
// Required and must not be nil.
//
// This is a required option for NewOrchestrator.
func WithTranslator(t translator.Translator) Option {
	return func(o *Orchestrator) error {
		if t == nil {
			return fmt.Errorf("translator cannot be nil")
		}
		o.translator = t
		return nil
	}
}

// WithLogger sets the logger instance for the orchestrator.
// Logger is required and must not be nil.
//
// This is a required option for NewOrchestrator.
//
// Use NoopLogger for silent operation or implement Logger interface
// to integrate with your logging system (zap, logrus, etc.).
func WithLogger(logger Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithChangeFeed sets the change feed the orchestrator consumes insert
// events from and publishes translation updates to.
//
// This is an optional configuration — without it, Run degrades to a pure
// polling worker driven by the stale-pending sweep.
func WithChangeFeed(feed ChangeFeed) Option {
	return func(o *Orchestrator) error {
		if feed == nil {
			return fmt.Errorf("feed cannot be nil")
		}
		o.feed = feed
		return nil
	}
}

// WithInflightSet replaces the default in-flight dedup set.
// Useful for tuning TTL/bounds or sharing a set across orchestrators.
func WithInflightSet(set *InflightSet) Option {
	return func(o *Orchestrator) error {
		if set == nil {
			return fmt.Errorf("inflight set cannot be nil")
		}
		o.inflight = set
		return nil
	}
}

// WithBatchSize sets the number of stale messages to process per sweep.
// This is an optional configuration - default is 100 messages per sweep.
//
// Must be > 0.
func WithBatchSize(size int) Option {
	return func(o *Orchestrator) error {
		if size <= 0 {
			return fmt.Errorf("batch size must be > 0, got %d", size)
		}
		o.batchSize = size
		return nil
	}
}

// WithStaleAfter sets the minimum age before a pending message is eligible
// for the sweep. This is an optional configuration - default is 30 seconds.
//
// Keep it comfortably above typical notification latency so the sweep does
// not race fresh insert events.
func WithStaleAfter(age time.Duration) Option {
	return func(o *Orchestrator) error {
		if age <= 0 {
			return fmt.Errorf("stale age must be > 0, got %v", age)
		}
		o.staleAfter = age
		return nil
	}
}

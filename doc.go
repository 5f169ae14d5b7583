// Package messaging provides the cross-language messaging core for the
// ClientDesk consulting platform: message persistence, heuristic language
// detection, and an asynchronous translation pipeline with eventual-
// consistency delivery via change notifications.
//
// Works both as a library for embedding in your application AND as a
// standalone microservice with REST API (see cmd/messaging-server).
//
// # Features
//
//   - Asynchronous translation: the send path never waits on the provider
//   - At-most-once translation per message via a store-level conditional claim
//   - Local in-flight dedup set absorbs duplicate change notifications
//   - Durable stale-pending sweep recovers messages whose notification was missed
//   - Heuristic, dependency-free language detection (best effort by design)
//   - Field-scoped updates so translation and read-state writers never clobber each other
//   - Tagged-union message-action boundary with exhaustive dispatch
//   - Repository Pattern for clean data access abstraction
//   - Options Pattern for service construction
//   - Pluggable Logger, ChangeFeed, and ActionSink
//   - Multi-Database Support: MySQL, PostgreSQL, SQLite via Relica adapters
//   - Embedded migrations for easy database setup
//
// # Quick Start
//
// Apply the embedded migrations, then build the services:
//
//	import (
//	    "database/sql"
//	    "github.com/clientdesk/messaging"
//	    "github.com/clientdesk/messaging/adapters/relica"
//	    "github.com/clientdesk/messaging/translator"
//	    _ "github.com/go-sql-driver/mysql"
//	)
//
//	db, _ := sql.Open("mysql", "user:pass@tcp(localhost:3306)/clientdesk?parseTime=true")
//
//	repos := relica.NewRepositories(db, "mysql")
//	feed := messaging.NewMemoryChangeFeed(logger)
//	provider := translator.NewHTTPTranslator(endpoint, apiKey)
//
//	messenger, _ := messaging.NewMessenger(
//	    messaging.WithMessengerRepositories(repos.Message, repos.User),
//	    messaging.WithMessengerChangeFeed(feed),
//	    messaging.WithMessengerLogger(logger),
//	)
//
//	orch, _ := messaging.NewOrchestrator(
//	    messaging.WithRepositories(repos.Message, repos.User),
//	    messaging.WithTranslator(provider),
//	    messaging.WithChangeFeed(feed),
//	    messaging.WithLogger(logger),
//	)
//
//	// Run orchestrator (consumes insert events, sweeps every minute)
//	go orch.Run(ctx, time.Minute)
//
// Send a message:
//
//	msg, err := messenger.Send(ctx, messaging.SendRequest{
//	    SenderID:    42,
//	    RecipientID: 7,
//	    Body:        "Merhaba, nasılsınız?",
//	    MessageType: model.TypeGeneral,
//	})
//
// # Message Flow
//
//  1. SEND
//     Messenger.Send → detect original language → insert row
//     (needs_translation=true, status=pending) → publish insert event
//     → return immediately
//
//  2. ORCHESTRATOR (background)
//     Insert event (or sweep) → in-flight dedup → claim PENDING→IN_PROGRESS
//     → resolve both parties' current language preferences
//     → same language: NOT_NEEDED
//     → otherwise call provider: COMPLETED or FAILED (terminal, no auto-retry)
//     → publish update event
//
//  3. DISPLAY
//     Thread views re-render on update events; RenderMessage shows the
//     translation when one exists for the viewer's language, with a toggle
//     back to the original. A failed translation shows the original text
//     with no toggle and no error dialog.
//
// # Translation State Machine
//
//	pending → in_progress → completed
//	                      → failed      (manual requeue → pending)
//	                      → not_needed
//
// completed, failed, and not_needed are terminal. The claim transition is a
// conditional database update, so the at-most-once guarantee holds across
// orchestrator instances, not just within one process.
//
// # Database Schema
//
// The library requires 2 tables (created via embedded migrations):
//
//	msg_message - messages with translation metadata
//	msg_user    - participant directory with language preferences
//
// Supports MySQL, PostgreSQL, and SQLite via Relica adapters.
// Table prefix can be customized (default: "msg_").
//
// # Examples
//
// See the examples/ directory and cmd/messaging-server for complete wiring.
package messaging

// Package relica provides repository implementations using Relica query builder.
//
// Relica (github.com/coregx/relica) is a lightweight, type-safe database query
// builder for Go with zero production dependencies.
//
// This package provides production-ready implementations of the messaging
// repository interfaces:
//   - MessageRepository
//   - UserRepository
//
// Example usage:
//
//	import (
//	    "database/sql"
//	    "github.com/clientdesk/messaging"
//	    "github.com/clientdesk/messaging/adapters/relica"
//	    _ "github.com/go-sql-driver/mysql"
//	)
//
//	db, err := sql.Open("mysql", "user:pass@tcp(localhost:3306)/clientdesk?parseTime=true")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create repositories (driverName should be "mysql", "postgres", or "sqlite3")
//	repos := relica.NewRepositories(db, "mysql")
//
//	messenger, err := messaging.NewMessenger(
//	    messaging.WithMessengerRepositories(repos.Message, repos.User),
//	    messaging.WithMessengerLogger(logger),
//	)
package relica

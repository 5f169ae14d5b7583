package relica

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coregx/relica"

	"github.com/clientdesk/messaging"
	"github.com/clientdesk/messaging/model"
)

// UserRepository implements messaging.UserRepository using Relica.
type UserRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewUserRepository creates a new UserRepository with default table prefix.
func NewUserRepository(sqlDB *sql.DB, driverName string) *UserRepository {
	return &UserRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: "msg_"}
}

// NewUserRepositoryWithPrefix creates a new UserRepository with custom table prefix.
func NewUserRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *UserRepository {
	return &UserRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *UserRepository) tableName() string {
	return r.tablePrefix + "user"
}

// Lookup retrieves a user by ID.
func (r *UserRepository) Lookup(ctx context.Context, id int64) (model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("id = ?", id).One(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return user, messaging.ErrNoData
	}
	if err != nil {
		return user, messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to look up user", err)
	}
	return user, nil
}

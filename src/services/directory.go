// backend/src/services/directory.go
package services

import (
	"database/sql"

	"github.com/merkaz770/shluchim/backend/src/model"
	"github.com/merkaz770/shluchim/backend/src/models"
)

type sqliteDirectory struct {
	db *sql.DB
}

// NewDirectory returns the SQLite-backed account/plan directory.
func NewDirectory(db *sql.DB) Directory {
	return &sqliteDirectory{db: db}
}

func (d *sqliteDirectory) UserByID(id int64) (*model.User, error) {
	return model.GetUserByID(d.db, id)
}

func (d *sqliteDirectory) Users() ([]model.User, error) {
	return model.ListUsers(d.db)
}

func (d *sqliteDirectory) UsersWithSubscription() ([]model.User, error) {
	return model.ListUsersWithSubscription(d.db)
}

func (d *sqliteDirectory) SubscriptionType(id int64) (*models.SubscriptionType, error) {
	return model.GetSubscriptionType(d.db, id)
}

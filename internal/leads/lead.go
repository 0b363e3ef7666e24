// Package leads persists captured prospective-student records.
package leads

import (
	"embed"
	"errors"
	"fmt"
	"time"
)

// Migrations holds the schema for the leads table, rooted at "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Lead is one captured record; TgID is the Telegram user id and primary key.
type Lead struct {
	TgID      int64     `db:"tg_id"`
	Name      string    `db:"name"`
	AgeGroup  string    `db:"age_group"`
	Level     string    `db:"level"`
	Goal      string    `db:"goal"`
	Schedule  string    `db:"schedule"`
	Contact   string    `db:"contact"`
	CreatedAt time.Time `db:"created_at"`
}

// ErrMissingID is wrapped in a StorageError when a lead has no identity.
var ErrMissingID = errors.New("lead has no tg_id")

// StorageError reports a failed store operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("leads: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Code is used by the router to tag failed handler summaries.
func (e *StorageError) Code() string {
	return "STORAGE_ERROR"
}

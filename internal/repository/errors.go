// Package repository stores resources, blackout windows, booking requests and
// their status history through GORM. It works against PostgreSQL in
// production and SQLite in local development and tests.
package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrSlotTaken is returned when an insert or update would make two active
	// bookings of one resource overlap, or an active booking overlap a
	// blackout window. Callers treat it as a normal "slot taken" outcome.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrStaleStatus is returned when the booking status changed between
	// the read and the conditional update.
	ErrStaleStatus = errors.New("booking status changed concurrently")

	// ErrBookingsInWindow is returned when a blackout window would cover
	// active bookings.
	ErrBookingsInWindow = errors.New("active bookings inside blackout window")

	// ErrDuplicate is returned on unique constraint violations.
	ErrDuplicate = errors.New("duplicate record")

	// ErrStoreBusy is returned when SQLite could not take its write lock
	// within the busy timeout. The operation can be retried.
	ErrStoreBusy = errors.New("store busy")
)

const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"

	bookingNoOverlapConstraint = "booking_requests_no_overlap"
)

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			if pgErr.ConstraintName == "" || pgErr.ConstraintName == bookingNoOverlapConstraint {
				return ErrSlotTaken
			}
		case pgUniqueViolation:
			return ErrDuplicate
		}
	}
	if isSQLiteBusy(err) {
		return ErrStoreBusy
	}
	return err
}

func isSQLiteBusy(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	// The cgo driver used by tests reports the same condition by message.
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

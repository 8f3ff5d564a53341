// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row addressed by id, name or key does not
// exist within the caller's store.  Handlers translate it into 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own, such as redeeming a ticket against
// another staff member's booking. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as a booking overlapping another booking of
// the same staff member. Handlers should translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")

// ErrDuplicateSerial is returned when an issue batch contains a serial
// number already present (used or unused) for the store and ticket type.
var ErrDuplicateSerial = errors.New("duplicate ticket serial")

// ErrQuotaExhausted is returned when a staff member has no public-relations
// redemptions left this month.
var ErrQuotaExhausted = errors.New("monthly quota exhausted")

// mysqlDupEntry is ER_DUP_ENTRY, raised by unique keys.
const mysqlDupEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDupEntry
}

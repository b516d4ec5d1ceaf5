package errors

import (
	"context"
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// sqlState describes one postgres SQLSTATE we classify
type sqlState struct {
	code      ErrorCode
	transient bool
}

var sqlStates = map[string]sqlState{
	"23505": {code: ErrorCodeDuplicateKey},                 // unique_violation
	"23503": {code: ErrorCodeInvalidArgument},              // foreign_key_violation, input names a missing row
	"23502": {code: ErrorCodeValidation},                   // not_null_violation
	"23514": {code: ErrorCodeValidation},                   // check_violation
	"22001": {code: ErrorCodeInvalidArgument},              // string_data_right_truncation
	"22P02": {code: ErrorCodeInvalidArgument},              // invalid_text_representation
	"40001": {code: ErrorCodeDB, transient: true},          // serialization_failure
	"40P01": {code: ErrorCodeDB, transient: true},          // deadlock_detected
	"55P03": {code: ErrorCodeDB, transient: true},          // lock_not_available
	"25006": {code: ErrorCodeUnavailable},                  // read_only_sql_transaction
	"57P03": {code: ErrorCodeUnavailable, transient: true}, // cannot_connect_now, server starting
}

// transientText matches driver messages that carry no SQLSTATE, mostly seen on commit
var transientText = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"canceling statement due to lock timeout",
	"terminating connection due to administrator command",
}

func pgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	ok := stderrs.As(err, &pe)
	return pe, ok
}

func hasState(err error, state string) bool {
	pe, ok := pgError(err)
	return ok && pe.Code == state
}

// IsDuplicateKey reports a unique constraint violation anywhere in the chain
func IsDuplicateKey(err error) bool { return hasState(err, "23505") }

// IsForeignKeyViolation reports a foreign key violation anywhere in the chain
func IsForeignKeyViolation(err error) bool { return hasState(err, "23503") }

// DBErrorCode maps a postgres error to an ErrorCode.
// ok is false when err carries no *pgconn.PgError.
func DBErrorCode(err error) (ErrorCode, bool) {
	pe, ok := pgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	if s, known := sqlStates[pe.Code]; known {
		return s.code, true
	}
	return ErrorCodeDB, true
}

// IsRetryable reports transient postgres contention. Cancellation and deadlines are left to the caller.
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pe, ok := pgError(err); ok {
		return sqlStates[pe.Code].transient
	}
	msg := strings.ToLower(Root(err).Error())
	for _, t := range transientText {
		if strings.Contains(msg, t) {
			return true
		}
	}
	return false
}

package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErr(code string) *pgconn.PgError { return &pgconn.PgError{Code: code} }

func TestDBErrorCode(t *testing.T) {
	t.Parallel()
	cases := []struct {
		state string
		want  ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23503", ErrorCodeInvalidArgument},
		{"23502", ErrorCodeValidation},
		{"22P02", ErrorCodeInvalidArgument},
		{"40P01", ErrorCodeDB},
		{"57P03", ErrorCodeUnavailable},
		{"XX000", ErrorCodeDB},
	}
	for _, tc := range cases {
		err := fmt.Errorf("insert fact batch: %w", pgErr(tc.state))
		got, ok := DBErrorCode(err)
		if !ok || got != tc.want {
			t.Fatalf("%s got=%d,%t want=%d", tc.state, got, ok, tc.want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("not pg")); ok {
		t.Fatalf("foreign error reported as pg")
	}
}

func TestConstraintPredicates(t *testing.T) {
	t.Parallel()
	dup := Wrap(pgErr("23505"), ErrorCodeDB, "fact store")
	fk := fmt.Errorf("article: %w", pgErr("23503"))

	if !IsDuplicateKey(dup) || IsDuplicateKey(fk) {
		t.Fatalf("IsDuplicateKey")
	}
	if !IsForeignKeyViolation(fk) || IsForeignKeyViolation(dup) {
		t.Fatalf("IsForeignKeyViolation")
	}
	if IsDuplicateKey(nil) || IsForeignKeyViolation(stderrs.New("23503")) {
		t.Fatalf("non pg errors matched")
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want bool
	}{
		{pgErr("40001"), true},
		{pgErr("40P01"), true},
		{pgErr("55P03"), true},
		{pgErr("57P03"), true},
		{pgErr("23505"), false},
		{pgErr("25006"), false},
		{stderrs.New("ERROR: could not serialize access due to concurrent update"), true},
		{stderrs.New("terminating connection due to administrator command"), true},
		{fmt.Errorf("tx: %w", context.DeadlineExceeded), false},
		{stderrs.New("syntax error"), false},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Fatalf("%v got=%t want=%t", tc.err, got, tc.want)
		}
	}
}

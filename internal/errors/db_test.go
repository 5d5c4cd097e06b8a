package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_Codes(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
		{name: "no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
		{
			name: "unique violation on primary key",
			err: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				TableName:      "identities",
				ConstraintName: "identities_pkey",
				Detail:         "Key (identifier)=(alice) already exists.",
			},
			wantCode:  ErrCodeConflict,
			wantField: "identifier",
		},
		{
			name: "unique violation with column metadata",
			err: &pgconn.PgError{
				Code:       pgerrcode.UniqueViolation,
				ColumnName: "identifier",
			},
			wantCode:  ErrCodeConflict,
			wantField: "identifier",
		},
		{
			name: "check violation inferred from constraint",
			err: &pgconn.PgError{
				Code:           pgerrcode.CheckViolation,
				TableName:      "identities",
				ConstraintName: "identities_identifier_check",
			},
			wantCode:  ErrCodeValidation,
			wantField: "identifier",
		},
		{
			name: "not null violation",
			err: &pgconn.PgError{
				Code:       pgerrcode.NotNullViolation,
				ColumnName: "capabilities",
			},
			wantCode:  ErrCodeValidation,
			wantField: "capabilities",
		},
		{
			name:     "connection failure",
			err:      &pgconn.PgError{Code: pgerrcode.ConnectionFailure},
			wantCode: ErrCodeUnavailable,
		},
		{
			name:     "server starting up",
			err:      &pgconn.PgError{Code: pgerrcode.CannotConnectNow},
			wantCode: ErrCodeUnavailable,
		},
		{
			name:     "other postgres error",
			err:      &pgconn.PgError{Code: pgerrcode.DivisionByZero},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if got := GetCode(err); got != tt.wantCode {
				t.Fatalf("MapDBError() code = %q, want %q", got, tt.wantCode)
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("MapDBError() field = %q, want %q", got, tt.wantField)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("MapDBError() should wrap the original error")
			}
		})
	}
}

func TestMapDBError_ConflictMessageNamesEntity(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, TableName: "identities"})

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Message != "identity already exists" {
		t.Errorf("message = %q", appErr.Message)
	}
}

func TestMapDBError_PassesThroughUnknownErrors(t *testing.T) {
	orig := errors.New("boom")
	if got := MapDBError(orig); got != orig { //nolint:errorlint // identity check
		t.Errorf("MapDBError() = %v, want original error", got)
	}
}

func TestFieldFromConstraint(t *testing.T) {
	tests := map[string]string{
		"identities_identifier_check": "identifier",
		"identities_identifier_key":   "identifier",
		"identities_pkey":             "",
		"identities_capabilities_idx": "capabilities",
		"identities_a_b_key":          "",
		"identities_identifier_fkey":  "",
		"":                            "",
	}
	for constraint, want := range tests {
		if got := fieldFromConstraint(constraint); got != want {
			t.Errorf("fieldFromConstraint(%q) = %q, want %q", constraint, got, want)
		}
	}
}

func TestEntityName(t *testing.T) {
	tests := map[string]string{
		"identities":    "identity",
		"  IDENTITIES ": "identity",
		"audit_log":     "audit log",
		"":              "record",
	}
	for table, want := range tests {
		if got := entityName(table); got != want {
			t.Errorf("entityName(%q) = %q, want %q", table, got, want)
		}
	}
}

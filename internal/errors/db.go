package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the column from a unique violation detail: "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// entityNames maps tables to the names used in messages.
var entityNames = map[string]string{
	"identities":        "identity",
	"schema_migrations": "migration",
}

// MapDBError maps database errors to AppError instances:
//   - pgx.ErrNoRows becomes NotFound
//   - unique violations become Conflict
//   - check and NOT NULL violations become Validation
//   - connection failures become Unavailable
//   - context timeouts and cancellations keep their own codes
//
// Errors that are not database errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "database request timed out")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "database request was canceled")
	case errors.Is(err, pgx.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "resource not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}
	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	entity := entityName(pgErr.TableName)

	switch {
	case pgErr.Code == pgerrcode.UniqueViolation:
		field := uniqueField(pgErr)
		return &AppError{Code: ErrCodeConflict, Message: entity + " already exists", Field: field, Cause: pgErr}
	case pgErr.Code == pgerrcode.CheckViolation:
		field := pgErr.ColumnName
		if field == "" {
			field = fieldFromConstraint(pgErr.ConstraintName)
		}
		return &AppError{Code: ErrCodeValidation, Message: entity + " has an invalid value", Field: field, Cause: pgErr}
	case pgErr.Code == pgerrcode.NotNullViolation:
		return &AppError{Code: ErrCodeValidation, Message: "required field is missing", Field: pgErr.ColumnName, Cause: pgErr}
	case pgerrcode.IsConnectionException(pgErr.Code), pgErr.Code == pgerrcode.CannotConnectNow:
		return &AppError{Code: ErrCodeUnavailable, Message: "database unavailable", Cause: pgErr}
	default:
		return &AppError{Code: ErrCodeInternal, Message: "database error", Cause: pgErr}
	}
}

// uniqueField prefers column metadata, then the detail message, then the constraint name.
func uniqueField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}
	return fieldFromConstraint(pgErr.ConstraintName)
}

// fieldFromConstraint infers the column from "<table>_<column>_<suffix>" constraint names,
// e.g. "identities_identifier_check" yields "identifier" and "identities_pkey" yields "".
func fieldFromConstraint(constraint string) string {
	parts := strings.Split(strings.ToLower(constraint), "_")
	if len(parts) != 3 {
		return ""
	}
	switch parts[2] {
	case "key", "check", "unique", "idx":
		return parts[1]
	}
	return ""
}

func entityName(table string) string {
	table = strings.ToLower(strings.TrimSpace(table))
	if name, ok := entityNames[table]; ok {
		return name
	}
	if table == "" {
		return "record"
	}
	return strings.ReplaceAll(table, "_", " ")
}

package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/target/gatekeeper/internal/data/pgxutil"
	domainauth "github.com/target/gatekeeper/internal/domain/auth"
	"github.com/target/gatekeeper/internal/domain/model"
	apperrors "github.com/target/gatekeeper/internal/errors"
	"github.com/target/gatekeeper/internal/ports"
)

// IdentityRepo provides database operations for identities and resolves them for authentication.
type IdentityRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ ports.IdentityResolver = (*IdentityRepo)(nil)

// NewIdentityRepo creates a new IdentityRepo with real time provider.
func NewIdentityRepo(db *sql.DB) *IdentityRepo {
	return &IdentityRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewIdentityRepoWithTimeProvider creates a new IdentityRepo with a custom time provider (useful for tests).
func NewIdentityRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *IdentityRepo {
	return &IdentityRepo{DB: db, timeProvider: tp}
}

const (
	identityColumns = `identifier, password_hash, capabilities, created_at, updated_at`

	identityGetQuery = `SELECT ` + identityColumns + ` FROM identities WHERE identifier = $1`

	identityListQuery = `SELECT ` + identityColumns + `
		FROM identities
		ORDER BY identifier
		LIMIT $1 OFFSET $2`

	identityInsertQuery = `
		INSERT INTO identities (identifier, password_hash, capabilities, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING ` + identityColumns

	identityUpdateCapabilitiesQuery = `
		UPDATE identities SET capabilities = $2, updated_at = $3
		WHERE identifier = $1
		RETURNING ` + identityColumns
)

// FindByIdentifier implements ports.IdentityResolver.
// A missing row is reported as domainauth.ErrIdentityNotFound.
func (r *IdentityRepo) FindByIdentifier(ctx context.Context, id string) (domainauth.Identity, error) {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return domainauth.Identity{}, err
	}
	return rec.ToIdentity(), nil
}

// Get retrieves an identity record by identifier.
func (r *IdentityRepo) Get(ctx context.Context, id string) (*model.IdentityRecord, error) {
	if id == "" {
		return nil, domainauth.ErrIdentityNotFound
	}
	var out model.IdentityRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, identityGetQuery, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.IdentityRecord])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainauth.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("get identity: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}

// List retrieves identities ordered by identifier.
func (r *IdentityRepo) List(ctx context.Context, limit, offset int) ([]*model.IdentityRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	offset = max(offset, 0)

	var rowsOut []model.IdentityRecord
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, identityListQuery, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.IdentityRecord])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list identities: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.IdentityRecord, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Create inserts a new identity. A duplicate identifier yields a conflict AppError.
func (r *IdentityRepo) Create(ctx context.Context, req *model.CreateIdentityRequest) (*model.IdentityRecord, error) {
	if req == nil {
		return nil, errors.New("create identity request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid identity")
	}

	var hash *string
	if req.PasswordHash != "" {
		h := req.PasswordHash
		hash = &h
	}
	caps := req.Capabilities
	if caps == nil {
		caps = []string{}
	}

	now := r.timeProvider.Now().UTC()
	var out model.IdentityRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, identityInsertQuery, req.ID, hash, caps, now)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.IdentityRecord])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// SetCapabilities replaces the capabilities granted to id.
func (r *IdentityRepo) SetCapabilities(
	ctx context.Context,
	id string,
	capabilities []string,
) (*model.IdentityRecord, error) {
	req := model.CreateIdentityRequest{ID: id, Capabilities: slices.Clone(capabilities)}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid capabilities")
	}

	var out model.IdentityRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, identityUpdateCapabilitiesQuery, req.ID, req.Capabilities,
			r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.IdentityRecord])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainauth.ErrIdentityNotFound
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// Delete removes an identity. It reports whether a row was deleted.
func (r *IdentityRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM identities WHERE identifier = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete identity: %w", apperrors.MapDBError(err))
	}
	return rows > 0, nil
}

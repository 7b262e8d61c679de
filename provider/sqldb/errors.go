package sqldb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/leomrlima/nosql/provider"
)

// convertDBError converts database-specific errors to provider errors. The
// registered postgres driver is lib/pq, so *pq.Error is the case hit in
// practice; *pgconn.PgError covers sessions built over a pgx stdlib pool via
// NewSessionFromDB.
func convertDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return provider.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", provider.ErrDuplicateKey, pqErr.Detail)
		case "23502": // not_null_violation
			return fmt.Errorf("sql: column %s must not be null: %w", pqErr.Column, err)
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", provider.ErrDuplicateKey, pgErr.Detail)
		case "23502": // not_null_violation
			return fmt.Errorf("sql: column %s must not be null: %w", pgErr.ColumnName, err)
		}
	}

	return err
}

// Package sqlite provides a SQLite-backed route gateway.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
	"github.com/louisbranch/routekeeper/internal/platform/requestctx"
	sqlitemigrate "github.com/louisbranch/routekeeper/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/routekeeper/internal/platform/timeouts"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/route"
	"github.com/louisbranch/routekeeper/internal/services/routes/storage"
	"github.com/louisbranch/routekeeper/internal/services/routes/storage/sqlite/migrations"
	"go.uber.org/zap"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const routeColumns = `id, name, coordinate_x, coordinate_y, creation_date,
       from_x, from_y, from_z, from_name,
       to_x, to_y, to_z, to_name,
       distance`

// Store persists routes in SQLite.
type Store struct {
	sqlDB *sql.DB
	log   *zap.Logger
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite route store, creating parent directories as needed, and
// applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := ensureDir(cleanPath); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cleanPath, timeouts.StoreBusy.Milliseconds())
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, log: zap.L().Named("storage")}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadAll returns every stored route ordered by id.
func (s *Store) LoadAll(ctx context.Context) ([]route.Route, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+routeColumns+` FROM routes ORDER BY id ASC`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "load routes", err)
	}
	defer rows.Close()

	var routes []route.Route
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorage, "load routes", err)
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "load routes", err)
	}
	return routes, nil
}

// Apply records one collection mutation.
func (s *Store) Apply(ctx context.Context, m route.Mutation) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	var err error
	switch m.Kind {
	case route.MutationInsert:
		err = s.insert(ctx, m.Route)
	case route.MutationReplace:
		err = s.replace(ctx, m.Route)
	case route.MutationDelete:
		err = s.delete(ctx, m.IDs)
	case route.MutationClear:
		_, err = s.sqlDB.ExecContext(ctx, `DELETE FROM routes`)
		if err != nil {
			err = apperrors.Wrap(apperrors.CodeStorage, "clear routes", err)
		}
	default:
		err = apperrors.Newf(apperrors.CodeStorage, "unsupported mutation %q", m.Kind)
	}
	if err != nil {
		s.log.Warn("apply mutation failed",
			zap.String("kind", string(m.Kind)),
			zap.String("request_id", requestctx.RequestIDFromContext(ctx)),
			zap.Error(err),
		)
	}
	return err
}

// Flush checkpoints the write-ahead log into the main database file.
func (s *Store) Flush(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "flush routes", err)
	}
	s.log.Info("routes flushed")
	return nil
}

func (s *Store) insert(ctx context.Context, r route.Route) error {
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO routes (`+routeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.Name,
		r.Coordinates.X,
		r.Coordinates.Y,
		toMillis(r.CreationDate),
		r.From.X,
		r.From.Y,
		r.From.Z,
		r.From.Name,
		r.To.X,
		r.To.Y,
		r.To.Z,
		r.To.Name,
		r.Distance,
	)
	if err != nil {
		if isRouteUniqueViolation(err) {
			return apperrors.Wrap(apperrors.CodeConflict, "route id already stored", err)
		}
		return apperrors.Wrap(apperrors.CodeStorage, "insert route", err)
	}
	return nil
}

func (s *Store) replace(ctx context.Context, r route.Route) error {
	res, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE routes
		    SET name = ?, coordinate_x = ?, coordinate_y = ?, creation_date = ?,
		        from_x = ?, from_y = ?, from_z = ?, from_name = ?,
		        to_x = ?, to_y = ?, to_z = ?, to_name = ?,
		        distance = ?
		  WHERE id = ?`,
		r.Name,
		r.Coordinates.X,
		r.Coordinates.Y,
		toMillis(r.CreationDate),
		r.From.X,
		r.From.Y,
		r.From.Z,
		r.From.Name,
		r.To.X,
		r.To.Y,
		r.To.Z,
		r.To.Name,
		r.Distance,
		r.ID,
	)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "update route", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "update route", err)
	}
	if n == 0 {
		return apperrors.Newf(apperrors.CodeNotFound, "route %d is not stored", r.ID)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "begin delete", err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM routes WHERE id = ?`, id); err != nil {
			_ = tx.Rollback()
			return apperrors.Wrap(apperrors.CodeStorage, "delete route", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "commit delete", err)
	}
	return nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "storage call canceled", err)
	}
	if s == nil || s.sqlDB == nil {
		return apperrors.New(apperrors.CodeStorage, "storage is not configured")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (route.Route, error) {
	var r route.Route
	var createdAt int64
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Coordinates.X,
		&r.Coordinates.Y,
		&createdAt,
		&r.From.X,
		&r.From.Y,
		&r.From.Z,
		&r.From.Name,
		&r.To.X,
		&r.To.Y,
		&r.To.Z,
		&r.To.Name,
		&r.Distance,
	)
	if err != nil {
		return route.Route{}, err
	}
	r.CreationDate = fromMillis(createdAt)
	return r, nil
}

func isRouteUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "routes.id")
}

var _ storage.Gateway = (*Store)(nil)

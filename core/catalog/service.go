// ABOUTME: Catalog publisher committing artifact metadata through stage-then-commit
// ABOUTME: SQLite-backed; readers only ever observe fully committed entries

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"newsfetch-api/core/domain"
	coreerrors "newsfetch-api/core/errors"
	"newsfetch-api/core/interfaces"
)

// Service owns CatalogEntry storage exclusively. Publishes for the same id
// are serialized; distinct ids proceed independently.
type Service struct {
	db     *sql.DB
	logger interfaces.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService opens (or creates) the catalog database.
func NewService(dbPath string, logger interfaces.Logger) (*Service, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil && logger != nil {
		logger.Warn("failed to enable WAL mode", map[string]interface{}{"error": err.Error()})
	}

	schema := `
	CREATE TABLE IF NOT EXISTS catalog_staging (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		path TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		staged_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS catalog (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		path TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		published_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_catalog_updated ON catalog (updated_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Service{
		db:     db,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// Close releases the underlying database handle.
func (s *Service) Close() error {
	return s.db.Close()
}

// Publish commits an artifact's metadata. The id derives from the artifact
// content and title, so republishing identical content updates updated_at on
// the existing entry instead of duplicating it. On any failure the catalog
// keeps its prior committed state for that id.
func (s *Service) Publish(ctx context.Context, artifactPath, title string) (domain.CatalogEntry, error) {
	content, err := os.ReadFile(artifactPath)
	if err != nil {
		return domain.CatalogEntry{}, &coreerrors.CatalogWriteError{Err: fmt.Errorf("reading artifact: %w", err)}
	}

	info, err := os.Stat(artifactPath)
	if err != nil {
		return domain.CatalogEntry{}, &coreerrors.CatalogWriteError{Err: err}
	}

	id := domain.CatalogID(content, title)

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()

	// Stage first. A crash or failure after this point leaves only staging
	// residue, which commit clears and readers never see.
	if err := s.stage(ctx, id, title, artifactPath, info.Size(), now); err != nil {
		return domain.CatalogEntry{}, &coreerrors.CatalogWriteError{ID: id, Err: err}
	}

	entry, err := s.commit(ctx, id, now)
	if err != nil {
		return domain.CatalogEntry{}, &coreerrors.CatalogWriteError{ID: id, Err: err}
	}

	if s.logger != nil {
		s.logger.Info("published catalog entry", map[string]interface{}{
			"id":    entry.ID,
			"title": entry.Title,
			"path":  entry.Path,
		})
	}
	return entry, nil
}

func (s *Service) stage(ctx context.Context, id, title, path string, size int64, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO catalog_staging(id, title, path, file_size, staged_at)
	VALUES(?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title=excluded.title,
		path=excluded.path,
		file_size=excluded.file_size,
		staged_at=excluded.staged_at;
	`, id, title, path, size, now.Unix())
	return err
}

// commit atomically moves the staged row into the committed table. The
// upsert preserves published_at for republished content and bumps only
// updated_at.
func (s *Service) commit(ctx context.Context, id string, now time.Time) (domain.CatalogEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.CatalogEntry{}, err
	}
	defer tx.Rollback()

	var (
		title string
		path  string
		size  int64
	)
	row := tx.QueryRowContext(ctx, `SELECT title, path, file_size FROM catalog_staging WHERE id = ?`, id)
	if err := row.Scan(&title, &path, &size); err != nil {
		return domain.CatalogEntry{}, err
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO catalog(id, title, path, file_size, published_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		updated_at=excluded.updated_at;
	`, id, title, path, size, now.Unix(), now.Unix()); err != nil {
		return domain.CatalogEntry{}, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_staging WHERE id = ?`, id); err != nil {
		return domain.CatalogEntry{}, err
	}

	var publishedAt, updatedAt int64
	row = tx.QueryRowContext(ctx, `SELECT published_at, updated_at FROM catalog WHERE id = ?`, id)
	if err := row.Scan(&publishedAt, &updatedAt); err != nil {
		return domain.CatalogEntry{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.CatalogEntry{}, err
	}

	return domain.CatalogEntry{
		ID:          id,
		Title:       title,
		Path:        path,
		FileSize:    size,
		PublishedAt: time.Unix(publishedAt, 0),
		UpdatedAt:   time.Unix(updatedAt, 0),
	}, nil
}

// List returns committed entries, most recently updated first. since limits
// to entries updated after the given time when non-zero; limit 0 means all.
func (s *Service) List(ctx context.Context, since time.Time, limit int) ([]domain.CatalogEntry, error) {
	query := `SELECT id, title, path, file_size, published_at, updated_at FROM catalog`
	args := []interface{}{}
	if !since.IsZero() {
		query += ` WHERE updated_at > ?`
		args = append(args, since.Unix())
	}
	query += ` ORDER BY updated_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.CatalogEntry
	for rows.Next() {
		var (
			entry       domain.CatalogEntry
			publishedAt int64
			updatedAt   int64
		)
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.Path, &entry.FileSize, &publishedAt, &updatedAt); err != nil {
			return nil, err
		}
		entry.PublishedAt = time.Unix(publishedAt, 0)
		entry.UpdatedAt = time.Unix(updatedAt, 0)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Get returns one committed entry by id.
func (s *Service) Get(ctx context.Context, id string) (domain.CatalogEntry, error) {
	var (
		entry       domain.CatalogEntry
		publishedAt int64
		updatedAt   int64
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, path, file_size, published_at, updated_at FROM catalog WHERE id = ?`, id)
	if err := row.Scan(&entry.ID, &entry.Title, &entry.Path, &entry.FileSize, &publishedAt, &updatedAt); err != nil {
		return domain.CatalogEntry{}, err
	}
	entry.PublishedAt = time.Unix(publishedAt, 0)
	entry.UpdatedAt = time.Unix(updatedAt, 0)
	return entry, nil
}

func (s *Service) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

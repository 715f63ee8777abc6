package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/recall-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// Store is a SQLite-backed metadata store. It currently provides the
// category store; further metadata tables share the same database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.recall/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".recall", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CategoryStore returns a CategoryStore interface backed by this store.
func (s *Store) CategoryStore() driven.CategoryStore {
	return &categoryStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_categories.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Category Store ====================

// categoryStore implements driven.CategoryStore.
type categoryStore struct {
	store *Store
}

var _ driven.CategoryStore = (*categoryStore)(nil)

// Save stores or updates a category.
func (s *categoryStore) Save(ctx context.Context, cat *domain.Category) error {
	if cat.UserID == "" || cat.Name == "" {
		return domain.ErrValidation
	}

	if cat.UpdatedAt.IsZero() {
		cat.UpdatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, weight, usage_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, name) DO UPDATE SET
			weight = excluded.weight,
			usage_count = excluded.usage_count,
			updated_at = excluded.updated_at
	`, cat.UserID, cat.Name, cat.Weight, cat.UsageCount, cat.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving category: %w", err)
	}
	return nil
}

// Get retrieves a category by user and name.
func (s *categoryStore) Get(ctx context.Context, userID, name string) (*domain.Category, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT user_id, name, weight, usage_count, updated_at
		FROM categories WHERE user_id = ? AND name = ?
	`, userID, name)

	var cat domain.Category
	var updatedAt sql.NullTime
	if err := row.Scan(&cat.UserID, &cat.Name, &cat.Weight, &cat.UsageCount, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning category: %w", err)
	}

	if updatedAt.Valid {
		cat.UpdatedAt = updatedAt.Time
	}

	return &cat, nil
}

// List returns all categories for a user, heaviest first.
func (s *categoryStore) List(ctx context.Context, userID string) ([]domain.Category, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT user_id, name, weight, usage_count, updated_at
		FROM categories WHERE user_id = ?
		ORDER BY weight DESC, name ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var cats []domain.Category //nolint:prealloc // size unknown from query
	for rows.Next() {
		var cat domain.Category
		var updatedAt sql.NullTime
		if err := rows.Scan(&cat.UserID, &cat.Name, &cat.Weight, &cat.UsageCount, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		if updatedAt.Valid {
			cat.UpdatedAt = updatedAt.Time
		}
		cats = append(cats, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}

	return cats, nil
}

// Close is a no-op; the owning Store manages the connection.
func (s *categoryStore) Close() error {
	return nil
}

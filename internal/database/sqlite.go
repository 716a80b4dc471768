// Package database provides the SQLite-backed store the importer writes
// to.
package database

import (
	"database/sql"
	"fmt"

	"chatdb-go/internal/database/migrations"
	"chatdb-go/internal/importer"
	"chatdb-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the importer.Database interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db, path: ""}
}

// OpenConnection opens and configures a SQLite database connection with
// appropriate PRAGMAs. Exported for tools and tests that need a properly
// configured connection. path can be a file path or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// PRAGMAs are per-connection and the import is strictly sequential,
	// so pin the pool to a single connection.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Upsert operations
//
// All three writes are INSERT OR REPLACE keyed by the derived primary key,
// so re-importing the same archive overwrites rows instead of failing.

func (s *SQLiteDatabase) UpsertConversation(conv *model.Conversation) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO conversations (id, title, create_time, update_time, model_slug, is_archived)
		VALUES (?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.Title, conv.CreateTime, conv.UpdateTime, conv.ModelSlug, conv.IsArchived,
	)
	if err != nil {
		return fmt.Errorf("upserting conversation %s: %w", conv.ID, err)
	}
	return nil
}

func (s *SQLiteDatabase) UpsertMessage(msg *model.Message) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO messages
			(id, conversation_id, parent_id, author_role, content_type, text_content,
			 create_time, model_slug, message_order, has_assets)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.ParentID, msg.AuthorRole, msg.ContentType,
		msg.TextContent, msg.CreateTime, msg.ModelSlug, msg.MessageOrder, msg.HasAssets,
	)
	if err != nil {
		return fmt.Errorf("upserting message %s: %w", msg.ID, err)
	}
	return nil
}

func (s *SQLiteDatabase) UpsertAsset(asset *model.Asset) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO assets
			(id, message_id, asset_pointer, content_type, size_bytes, width, height,
			 metadata, asset_order, file_content, file_name, mime_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		asset.ID, asset.MessageID, asset.AssetPointer, asset.ContentType,
		asset.SizeBytes, asset.Width, asset.Height, asset.Metadata,
		asset.AssetOrder, asset.FileContent, asset.FileName, asset.MimeType,
	)
	if err != nil {
		return fmt.Errorf("upserting asset %s: %w", asset.ID, err)
	}
	return nil
}

// WithForeignKeysDisabled runs fn with foreign key enforcement off,
// restoring it on every exit path. Linearization order does not guarantee
// a referenced parent row exists at insert time within a single pass, so
// the whole import runs inside this scope.
func (s *SQLiteDatabase) WithForeignKeysDisabled(fn func() error) (err error) {
	if _, err := s.db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disabling foreign keys: %w", err)
	}
	defer func() {
		if _, ferr := s.db.Exec("PRAGMA foreign_keys = ON"); ferr != nil && err == nil {
			err = fmt.Errorf("restoring foreign keys: %w", ferr)
		}
	}()

	return fn()
}

// Import run tracking

func (s *SQLiteDatabase) CreateImportRun(run *model.ImportRun) error {
	_, err := s.db.Exec(`
		INSERT INTO import_runs (id, archive_path, started_at, status)
		VALUES (?, ?, ?, ?)`,
		run.ID, run.ArchivePath, run.StartedAt, run.Status,
	)
	if err != nil {
		return fmt.Errorf("creating import run: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FinishImportRun(run *model.ImportRun) error {
	_, err := s.db.Exec(`
		UPDATE import_runs
		SET finished_at = ?, status = ?, conversations = ?, messages = ?, assets = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.Conversations, run.Messages, run.Assets, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing import run: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListImportRuns(limit int) ([]*model.ImportRun, error) {
	rows, err := s.db.Query(`
		SELECT id, archive_path, started_at, finished_at, status, conversations, messages, assets
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing import runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.ImportRun
	for rows.Next() {
		var run model.ImportRun
		var finishedAt sql.NullTime
		err := rows.Scan(&run.ID, &run.ArchivePath, &run.StartedAt, &finishedAt,
			&run.Status, &run.Conversations, &run.Messages, &run.Assets)
		if err != nil {
			return nil, fmt.Errorf("scanning import run: %w", err)
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing import runs: %w", err)
	}
	return runs, nil
}

// Read-back queries

// GetConversation fetches a conversation row by id. Returns sql.ErrNoRows
// (wrapped) when no such row exists.
func (s *SQLiteDatabase) GetConversation(id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.QueryRow(`
		SELECT id, title, create_time, update_time, model_slug, is_archived
		FROM conversations
		WHERE id = ?`, id).
		Scan(&conv.ID, &conv.Title, &conv.CreateTime, &conv.UpdateTime, &conv.ModelSlug, &conv.IsArchived)
	if err != nil {
		return nil, fmt.Errorf("getting conversation %s: %w", id, err)
	}
	return &conv, nil
}

// ListMessages returns a conversation's messages in emission order.
func (s *SQLiteDatabase) ListMessages(conversationID string) ([]*model.Message, error) {
	rows, err := s.db.Query(`
		SELECT id, conversation_id, parent_id, author_role, content_type, text_content,
		       create_time, model_slug, message_order, has_assets
		FROM messages
		WHERE conversation_id = ?
		ORDER BY message_order`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages for %s: %w", conversationID, err)
	}
	defer rows.Close()

	var msgs []*model.Message
	for rows.Next() {
		var msg model.Message
		err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.ParentID, &msg.AuthorRole,
			&msg.ContentType, &msg.TextContent, &msg.CreateTime, &msg.ModelSlug,
			&msg.MessageOrder, &msg.HasAssets)
		if err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msgs = append(msgs, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing messages for %s: %w", conversationID, err)
	}
	return msgs, nil
}

// ListAssets returns a message's assets in part order.
func (s *SQLiteDatabase) ListAssets(messageID string) ([]*model.Asset, error) {
	rows, err := s.db.Query(`
		SELECT id, message_id, asset_pointer, content_type, size_bytes, width, height,
		       metadata, asset_order, file_content, file_name, mime_type
		FROM assets
		WHERE message_id = ?
		ORDER BY asset_order`, messageID)
	if err != nil {
		return nil, fmt.Errorf("listing assets for %s: %w", messageID, err)
	}
	defer rows.Close()

	var assets []*model.Asset
	for rows.Next() {
		var asset model.Asset
		err := rows.Scan(&asset.ID, &asset.MessageID, &asset.AssetPointer, &asset.ContentType,
			&asset.SizeBytes, &asset.Width, &asset.Height, &asset.Metadata,
			&asset.AssetOrder, &asset.FileContent, &asset.FileName, &asset.MimeType)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, &asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing assets for %s: %w", messageID, err)
	}
	return assets, nil
}

// Counts holds per-table row counts for reporting.
type Counts struct {
	Conversations int64
	Messages      int64
	Assets        int64
}

// TableCounts returns the row counts of the three imported tables.
func (s *SQLiteDatabase) TableCounts() (*Counts, error) {
	var c Counts
	for _, q := range []struct {
		table string
		dest  *int64
	}{
		{"conversations", &c.Conversations},
		{"messages", &c.Messages},
		{"assets", &c.Assets},
	} {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + q.table).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.table, err)
		}
	}
	return &c, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// MigrateUp applies all pending schema migrations.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements importer.Database
var _ importer.Database = (*SQLiteDatabase)(nil)

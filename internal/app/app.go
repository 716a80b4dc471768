// Package app wires configuration, archive, database, logging and the
// import service into the operations the CLI exposes.
package app

import (
	"fmt"
	"os"

	"chatdb-go/internal/archive"
	"chatdb-go/internal/config"
	"chatdb-go/internal/database"
	"chatdb-go/internal/export"
	"chatdb-go/internal/importer"
	"chatdb-go/internal/model"
)

// conversationsEntry is the archive entry holding the export document.
const conversationsEntry = "conversations.json"

// Import run statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ImportApp owns one import run: the archive handle, the target database,
// the run record and the logger tagged with the run id.
// The caller must call Close when done.
type ImportApp struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	arch    *archive.Archive
	logger  importer.Logger
	logFile *os.File
	clock   importer.Clock
	run     *model.ImportRun
}

// NewImportApp opens the archive and the target database, applies schema
// migrations, and records the start of an import run.
func NewImportApp(cfg *config.Config, archivePath, dbPath string) (*ImportApp, error) {
	arch, err := archive.Open(archivePath)
	if err != nil {
		return nil, err
	}

	db, err := database.NewSQLiteDatabase(dbPath)
	if err != nil {
		arch.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.MigrateUp(); err != nil {
		db.Close()
		arch.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	clock := importer.RealClock{}
	runID := importer.UUIDGenerator{}.New()

	logger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		db.Close()
		arch.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	run := &model.ImportRun{
		ID:          runID,
		ArchivePath: archivePath,
		StartedAt:   clock.Now(),
		Status:      StatusRunning,
	}
	if err := db.CreateImportRun(run); err != nil {
		logFile.Close()
		db.Close()
		arch.Close()
		return nil, err
	}

	return &ImportApp{
		cfg:     cfg,
		db:      db,
		arch:    arch,
		logger:  &slogAdapter{l: logger},
		logFile: logFile,
		clock:   clock,
		run:     run,
	}, nil
}

// Import reads and parses the export document and imports everything into
// the database. The run record keeps the outcome either way.
func (a *ImportApp) Import() (importer.Stats, error) {
	data, err := a.arch.ReadEntry(conversationsEntry)
	if err != nil {
		a.run.Status = StatusFailed
		return importer.Stats{}, fmt.Errorf("%s: %w", a.arch.Path(), err)
	}

	conversations, err := export.Parse(data)
	if err != nil {
		a.run.Status = StatusFailed
		return importer.Stats{}, err
	}

	a.logger.Info("importing", "archive", a.arch.Path(), "conversations", len(conversations))

	svc := importer.NewImportService(a.db, a.arch, a.logger)
	stats, err := svc.ImportAll(conversations)

	a.run.Conversations = stats.Conversations
	a.run.Messages = stats.Messages
	a.run.Assets = stats.Assets
	if err != nil {
		a.run.Status = StatusFailed
		return stats, err
	}
	a.run.Status = StatusSuccess
	return stats, nil
}

// Close finalizes the run record and releases all resources.
func (a *ImportApp) Close() error {
	var firstErr error

	finished := a.clock.Now()
	a.run.FinishedAt = &finished
	if a.run.Status == StatusRunning {
		a.run.Status = StatusFailed
	}
	if err := a.db.FinishImportRun(a.run); err != nil {
		firstErr = err
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if err := a.arch.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing archive: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

// ListHistory returns the most recent import runs recorded in an existing
// database.
func ListHistory(dbPath string, limit int) ([]*model.ImportRun, error) {
	db, err := openExisting(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.ListImportRuns(limit)
}

// GetCounts returns per-table row counts from an existing database.
func GetCounts(dbPath string) (*database.Counts, error) {
	db, err := openExisting(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.TableCounts()
}

// openExisting opens a database that must already exist and be at the
// current schema version; read-only commands never create or migrate.
func openExisting(dbPath string) (*database.SQLiteDatabase, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database %s: %w", dbPath, err)
	}

	db, err := database.NewSQLiteDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}
	return db, nil
}

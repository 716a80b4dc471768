package importer

import "chatdb-go/internal/model"

// Database is the persistence collaborator the import writes through.
// All writes during an import are insert-or-replace keyed by derived ids.
type Database interface {
	// UpsertConversation writes a conversation row, replacing any existing
	// row with the same derived id.
	UpsertConversation(conv *model.Conversation) error

	// UpsertMessage writes a message row keyed by message id.
	UpsertMessage(msg *model.Message) error

	// UpsertAsset writes an attachment row, payload included, keyed by the
	// derived asset id.
	UpsertAsset(asset *model.Asset) error

	// WithForeignKeysDisabled runs fn with referential-integrity
	// enforcement relaxed, restoring it on every exit path. Insertion
	// order within a single pass cannot guarantee a referenced parent row
	// exists yet.
	WithForeignKeysDisabled(fn func() error) error

	// Import run tracking

	CreateImportRun(run *model.ImportRun) error
	FinishImportRun(run *model.ImportRun) error
	ListImportRuns(limit int) ([]*model.ImportRun, error)

	// Close closes the database connection.
	Close() error
}

// Archive is the read-only collaborator holding the export bundle's
// binary entries.
type Archive interface {
	// Entries returns all entry names in archive index order.
	Entries() []string

	// ReadEntryAt reads the entry at the given index, returning its name
	// and full payload.
	ReadEntryAt(i int) (string, []byte, error)
}

package model

import "time"

// Conversation is a persisted conversation record.
// The ID is derived from the export data, not given by it: either the
// first qualifying message's id ("conv_<msg-id>") or a hash fallback.
type Conversation struct {
	ID         string
	Title      string
	CreateTime int64 // Unix seconds
	UpdateTime int64 // Unix seconds
	ModelSlug  *string
	IsArchived bool
}

// Message is a persisted message record within a conversation.
// ParentID is the node id of the nearest ancestor in the conversation
// tree; it does not necessarily correspond to another message row.
type Message struct {
	ID             string
	ConversationID string
	ParentID       *string
	AuthorRole     string
	ContentType    string
	TextContent    *string
	CreateTime     *int64 // Unix seconds, absent when the export had none
	ModelSlug      *string
	MessageOrder   int // 0-based emission order within the conversation
	HasAssets      bool
}

// Asset is a persisted attachment record, payload included.
// FileName and MimeType are empty when the archive held no matching entry.
type Asset struct {
	ID           string
	MessageID    string
	AssetPointer string
	ContentType  string
	SizeBytes    *int64
	Width        *int64
	Height       *int64
	Metadata     *string // raw JSON text
	AssetOrder   int
	FileContent  []byte
	FileName     string
	MimeType     string
}

// ImportRun records a single invocation of the importer against a database.
type ImportRun struct {
	ID            string // UUID
	ArchivePath   string
	StartedAt     time.Time
	FinishedAt    *time.Time
	Status        string // "running", "success", or "failed"
	Conversations int64
	Messages      int64
	Assets        int64
}

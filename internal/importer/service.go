// Package importer orchestrates the conversion of a parsed export
// document into database rows: conversation by conversation, message by
// message, attachment by attachment, strictly in order.
package importer

import (
	"fmt"

	"chatdb-go/internal/export"
	"chatdb-go/internal/model"
)

// ImportService sequences conversation, message and asset persistence
// against the database, resolving attachment payloads from the archive as
// it goes.
type ImportService struct {
	database Database
	archive  Archive
	logger   Logger
}

// NewImportService creates a new ImportService with the provided dependencies.
func NewImportService(database Database, archive Archive, logger Logger) *ImportService {
	return &ImportService{
		database: database,
		archive:  archive,
		logger:   logger,
	}
}

// Stats counts what a single import run wrote.
type Stats struct {
	Conversations int64
	Messages      int64
	Assets        int64
}

// ImportAll imports every conversation in order. The whole run executes
// with foreign key enforcement suspended; any persistence failure aborts
// the run and is returned alongside the counts written up to that point.
func (s *ImportService) ImportAll(conversations []export.Conversation) (Stats, error) {
	var stats Stats

	err := s.database.WithForeignKeysDisabled(func() error {
		for i := range conversations {
			if err := s.importConversation(&conversations[i], &stats); err != nil {
				return err
			}
		}
		return nil
	})

	if err == nil {
		s.logger.Info("import complete",
			"conversations", stats.Conversations,
			"messages", stats.Messages,
			"assets", stats.Assets,
		)
	}
	return stats, err
}

// importConversation persists one conversation: the conversation row
// first, then its linearized messages, then each message's resolved
// assets.
func (s *ImportService) importConversation(conv *export.Conversation, stats *Stats) error {
	convID := export.ConversationID(conv)

	row := &model.Conversation{
		ID:         convID,
		Title:      conv.Title,
		CreateTime: int64(conv.CreateTime),
		UpdateTime: int64(conv.UpdateTime),
		ModelSlug:  conv.ModelSlug,
		IsArchived: conv.IsArchived != nil && *conv.IsArchived,
	}
	if err := s.database.UpsertConversation(row); err != nil {
		return fmt.Errorf("importing conversation %q: %w", conv.Title, err)
	}
	stats.Conversations++

	for _, lm := range export.Linearize(conv) {
		text, assets := export.ExtractContent(&lm.Message.Content)

		var createTime *int64
		if lm.Message.CreateTime.Valid {
			t := int64(lm.Message.CreateTime.Seconds)
			createTime = &t
		}

		msg := &model.Message{
			ID:             lm.MessageID,
			ConversationID: convID,
			ParentID:       lm.ParentID,
			AuthorRole:     lm.Message.Author.Role,
			ContentType:    lm.Message.Content.ContentType,
			TextContent:    text,
			CreateTime:     createTime,
			ModelSlug:      export.ModelSlug(lm.Message, conv),
			MessageOrder:   lm.OrderIndex,
			HasAssets:      len(assets) > 0,
		}
		if err := s.database.UpsertMessage(msg); err != nil {
			return fmt.Errorf("importing message %s: %w", lm.MessageID, err)
		}
		stats.Messages++

		for order, pointer := range assets {
			asset, err := s.resolveAsset(&pointer, lm.MessageID, order)
			if err != nil {
				return err
			}
			if err := s.database.UpsertAsset(asset); err != nil {
				return fmt.Errorf("importing asset %s: %w", asset.ID, err)
			}
			stats.Assets++
		}
	}

	s.logger.Debug("conversation imported", "id", convID, "title", conv.Title)
	return nil
}

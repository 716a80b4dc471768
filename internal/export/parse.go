package export

import (
	"encoding/json"
	"fmt"
)

// ParseError reports an export document that could not be decoded into
// conversations: malformed JSON, or a conversation missing a required
// field or carrying one of the wrong shape.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing export document: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parsing export document: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// rawConversation uses pointers for the required fields so absence is
// distinguishable from zero values after decoding.
type rawConversation struct {
	Title       *string                `json:"title"`
	CreateTime  *float64               `json:"create_time"`
	UpdateTime  *float64               `json:"update_time"`
	Mapping     map[string]MappingNode `json:"mapping"`
	CurrentNode *string                `json:"current_node"`
	ModelSlug   *string                `json:"model_slug"`
	IsArchived  *bool                  `json:"is_archived"`
}

// Parse decodes the raw text of an export document into conversations.
//
// Conversation-level title, create_time, update_time and mapping are
// required; a non-numeric conversation timestamp fails the document rather
// than being coerced. Message-level timestamps follow the permissive
// FlexTime rule instead, and all other optional fields default to absent.
func Parse(data []byte) ([]Conversation, error) {
	var raw []rawConversation
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Reason: "document is not well-formed", Err: err}
	}

	conversations := make([]Conversation, 0, len(raw))
	for i, rc := range raw {
		if rc.Title == nil {
			return nil, &ParseError{Reason: fmt.Sprintf("conversation %d: missing title", i)}
		}
		if rc.CreateTime == nil {
			return nil, &ParseError{Reason: fmt.Sprintf("conversation %d (%q): missing create_time", i, *rc.Title)}
		}
		if rc.UpdateTime == nil {
			return nil, &ParseError{Reason: fmt.Sprintf("conversation %d (%q): missing update_time", i, *rc.Title)}
		}
		if rc.Mapping == nil {
			return nil, &ParseError{Reason: fmt.Sprintf("conversation %d (%q): missing mapping", i, *rc.Title)}
		}

		conversations = append(conversations, Conversation{
			Title:       *rc.Title,
			CreateTime:  *rc.CreateTime,
			UpdateTime:  *rc.UpdateTime,
			Mapping:     rc.Mapping,
			CurrentNode: rc.CurrentNode,
			ModelSlug:   rc.ModelSlug,
			IsArchived:  rc.IsArchived,
		})
	}

	return conversations, nil
}

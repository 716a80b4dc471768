// Package export decodes exported conversation archives: the document
// format, the per-conversation node graph, and the rules for turning that
// graph into an ordered message sequence.
package export

import "encoding/json"

// Conversation is one thread from the export document. Mapping is the raw
// node adjacency; it is expected to be a tree but nothing in the format
// guarantees that, so traversal must tolerate cycles and shared children.
type Conversation struct {
	Title       string
	CreateTime  float64
	UpdateTime  float64
	Mapping     map[string]MappingNode
	CurrentNode *string
	ModelSlug   *string
	IsArchived  *bool
}

// MappingNode is a vertex in the conversation graph. A node may or may not
// carry a message; parentless nodes (or nodes parented to the sentinel
// "client-created-root") act as roots.
type MappingNode struct {
	ID       string   `json:"id"`
	Message  *Message `json:"message"`
	Parent   *string  `json:"parent"`
	Children []string `json:"children"`
}

// Message is a single message as exported. Metadata is kept raw because
// the export writes arbitrary shapes into it across application versions.
type Message struct {
	ID         string          `json:"id"`
	Author     Author          `json:"author"`
	CreateTime FlexTime        `json:"create_time"`
	UpdateTime *float64        `json:"update_time"`
	Content    Content         `json:"content"`
	Status     *string         `json:"status"`
	EndTurn    *bool           `json:"end_turn"`
	Weight     *float64        `json:"weight"`
	Metadata   json.RawMessage `json:"metadata"`
	Recipient  *string         `json:"recipient"`
	Channel    *string         `json:"channel"`
}

// Author identifies who wrote a message. Role is free text; "user",
// "assistant", "system" and "tool" are the well-known values.
type Author struct {
	Role     string         `json:"role"`
	Name     *string        `json:"name"`
	Metadata map[string]any `json:"metadata"`
}

// Content is a message body: a content-type label and an ordered sequence
// of heterogeneous parts.
type Content struct {
	ContentType      string  `json:"content_type"`
	Parts            []Part  `json:"parts"`
	UserProfile      *string `json:"user_profile"`
	UserInstructions *string `json:"user_instructions"`
}

// AssetPointer is a structured content part referencing a binary asset
// stored elsewhere in the archive.
type AssetPointer struct {
	AssetPointer string          `json:"asset_pointer"`
	ContentType  string          `json:"content_type"`
	SizeBytes    *int64          `json:"size_bytes"`
	Width        *int64          `json:"width"`
	Height       *int64          `json:"height"`
	Metadata     json.RawMessage `json:"metadata"`
}

// PartKind discriminates the content part variants.
type PartKind int

const (
	PartUnknown PartKind = iota
	PartText
	PartAsset
)

// Part is a tagged content part: plain text, an asset pointer, or an
// unrecognized shape. Unknown parts are preserved in position (they count
// toward "has parts") but carry nothing.
type Part struct {
	Kind  PartKind
	Text  string
	Asset *AssetPointer
}

// rawAssetPointer detects the required fields by presence, not emptiness.
type rawAssetPointer struct {
	AssetPointer *string         `json:"asset_pointer"`
	ContentType  *string         `json:"content_type"`
	SizeBytes    *int64          `json:"size_bytes"`
	Width        *int64          `json:"width"`
	Height       *int64          `json:"height"`
	Metadata     json.RawMessage `json:"metadata"`
}

// UnmarshalJSON decodes a part: a JSON string is text, an object with both
// asset_pointer and content_type is an asset, everything else (including
// objects failing that structural check) is unknown. Decoding never fails;
// malformed parts degrade to PartUnknown and are dropped downstream.
func (p *Part) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = Part{Kind: PartText, Text: s}
		return nil
	}

	var raw rawAssetPointer
	if err := json.Unmarshal(data, &raw); err == nil && raw.AssetPointer != nil && raw.ContentType != nil {
		*p = Part{Kind: PartAsset, Asset: &AssetPointer{
			AssetPointer: *raw.AssetPointer,
			ContentType:  *raw.ContentType,
			SizeBytes:    raw.SizeBytes,
			Width:        raw.Width,
			Height:       raw.Height,
			Metadata:     normalizeRawJSON(raw.Metadata),
		}}
		return nil
	}

	*p = Part{Kind: PartUnknown}
	return nil
}

// FlexTime is a timestamp that tolerates the export's inconsistent
// encodings: genuine JSON numbers parse, anything else (string, bool,
// object, null, absent) reads as not valid without an error.
type FlexTime struct {
	Seconds float64
	Valid   bool
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	// A *float64 target rejects quoted digits ("1700000000" stays a
	// string, not a timestamp) and maps null to nil.
	var f *float64
	if err := json.Unmarshal(data, &f); err != nil || f == nil {
		*t = FlexTime{}
		return nil
	}
	*t = FlexTime{Seconds: *f, Valid: true}
	return nil
}

// normalizeRawJSON maps absent and JSON null to nil.
func normalizeRawJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

// metadataValue looks up a key in a raw metadata blob. Non-object metadata
// reads as empty; the export is not trusted to keep this an object.
func metadataValue(raw json.RawMessage, key string) (any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

func metadataBool(raw json.RawMessage, key string) bool {
	v, ok := metadataValue(raw, key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func metadataString(raw json.RawMessage, key string) (string, bool) {
	v, ok := metadataValue(raw, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

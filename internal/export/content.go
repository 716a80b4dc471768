package export

// ExtractContent splits a message body into its text fragment and asset
// pointers, in part order. A later text part overwrites an earlier one —
// in multimodal content the last string is the actual instruction — and
// unknown parts are dropped without comment.
func ExtractContent(content *Content) (*string, []AssetPointer) {
	var text *string
	var assets []AssetPointer

	for _, part := range content.Parts {
		switch part.Kind {
		case PartText:
			t := part.Text
			text = &t
		case PartAsset:
			assets = append(assets, *part.Asset)
		}
	}

	return text, assets
}

// ModelSlug resolves the model attribution for a message: assistant
// messages take their own metadata's model_slug when present, then the
// conversation-level default. Everything else gets none.
func ModelSlug(msg *Message, conv *Conversation) *string {
	if msg.Author.Role != "assistant" {
		return nil
	}
	if slug, ok := metadataString(msg.Metadata, "model_slug"); ok {
		return &slug
	}
	return conv.ModelSlug
}

package export

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"strings"
)

// convIDPrefix prefixes every derived conversation id.
const convIDPrefix = "conv_"

// assetIDMarker separates an asset pointer's scheme noise from its bare id.
const assetIDMarker = "file-"

// ConversationID derives a stable, deterministic id for a conversation.
//
// The export gives conversations no id of their own, so one is derived
// from the first qualifying message: authored by "user" or "assistant"
// with a non-empty text part first in its content. The mapping is an
// unordered collection, so "first" is pinned down as the lexicographically
// smallest qualifying message id. When no message qualifies the id falls
// back to an FNV-1a hash of the title and the bit pattern of the creation
// timestamp — deterministic for the same input bytes, unique only as far
// as the hash space allows.
func ConversationID(conv *Conversation) string {
	best := ""
	for _, node := range conv.Mapping {
		msg := node.Message
		if msg == nil {
			continue
		}
		if msg.Author.Role != "user" && msg.Author.Role != "assistant" {
			continue
		}
		if len(msg.Content.Parts) == 0 {
			continue
		}
		first := msg.Content.Parts[0]
		if first.Kind != PartText || first.Text == "" {
			continue
		}
		if best == "" || msg.ID < best {
			best = msg.ID
		}
	}
	if best != "" {
		return convIDPrefix + best
	}

	h := fnv.New64a()
	io.WriteString(h, conv.Title)
	var bits [8]byte
	binary.BigEndian.PutUint64(bits[:], math.Float64bits(conv.CreateTime))
	h.Write(bits[:])
	return fmt.Sprintf("%s%x", convIDPrefix, h.Sum64())
}

// AssetID extracts the bare asset id from a pointer such as
// "file-service://file-abc123": the substring after the last "file-"
// marker. A pointer without the marker is used whole — a fallback, not an
// error.
func AssetID(pointer string) string {
	if i := strings.LastIndex(pointer, assetIDMarker); i >= 0 {
		return pointer[i+len(assetIDMarker):]
	}
	return pointer
}

package export

import "strings"

// rootSentinel is the parent value the export uses for client-created
// roots; a node keyed by this literal can also stand in as the root.
const rootSentinel = "client-created-root"

// LinearMessage is one message emitted by linearization: the message, the
// node id of its nearest ancestor (nil for the root), and its 0-based
// position in emission order. The parent id is a node id and is not
// guaranteed to correspond to another emitted message.
type LinearMessage struct {
	MessageID  string
	Message    *Message
	ParentID   *string
	OrderIndex int
}

// Linearize walks a conversation's node graph from its root in pre-order
// and returns the surviving messages in deterministic order.
//
// Hidden and empty-content message nodes are filtered out, but their
// children are still visited and keep the skipped node's id as their
// recorded parent. Nodes are visited at most once, so cycles and shared
// children cannot multiply or hang the traversal. A conversation with no
// discoverable root linearizes to nil without error.
func Linearize(conv *Conversation) []LinearMessage {
	rootID, ok := findRoot(conv.Mapping)
	if !ok {
		return nil
	}

	type frame struct {
		nodeID string
		parent *string
	}

	stack := []frame{{nodeID: rootID}}
	visited := make(map[string]bool, len(conv.Mapping))
	var out []LinearMessage

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[f.nodeID] {
			continue
		}
		visited[f.nodeID] = true

		node, ok := conv.Mapping[f.nodeID]
		if !ok {
			// Referenced but absent from the mapping: empty subtree.
			continue
		}

		if node.Message != nil && !shouldSkip(node.Message) {
			out = append(out, LinearMessage{
				MessageID:  node.Message.ID,
				Message:    node.Message,
				ParentID:   f.parent,
				OrderIndex: len(out),
			})
		}

		// Push in reverse so children pop in their listed order.
		parentID := f.nodeID
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{nodeID: node.Children[i], parent: &parentID})
		}
	}

	return out
}

// findRoot picks the traversal root: a parentless node or one parented to
// the sentinel. Ties break to the lexicographically smallest node id so
// the result does not depend on map iteration order. Falls back to the
// node keyed literally by the sentinel.
func findRoot(mapping map[string]MappingNode) (string, bool) {
	best := ""
	found := false
	for _, node := range mapping {
		if node.Parent != nil && *node.Parent != rootSentinel {
			continue
		}
		if !found || node.ID < best {
			best = node.ID
			found = true
		}
	}
	if found {
		return best, true
	}
	if node, ok := mapping[rootSentinel]; ok {
		return node.ID, true
	}
	return "", false
}

// shouldSkip reports whether a message node is filtered out of the
// linearization: hidden by its metadata, carrying no parts, or carrying
// only whitespace text parts. A non-text part always keeps the message.
func shouldSkip(msg *Message) bool {
	if metadataBool(msg.Metadata, "is_visually_hidden_from_conversation") {
		return true
	}
	if len(msg.Content.Parts) == 0 {
		return true
	}
	for _, part := range msg.Content.Parts {
		if part.Kind != PartText || strings.TrimSpace(part.Text) != "" {
			return false
		}
	}
	return true
}

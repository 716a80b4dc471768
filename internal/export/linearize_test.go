package export

import (
	"encoding/json"
	"testing"
)

// textMessage builds a message with a single text part.
func textMessage(id, role, text string) *Message {
	return &Message{
		ID:     id,
		Author: Author{Role: role},
		Content: Content{
			ContentType: "text",
			Parts:       []Part{{Kind: PartText, Text: text}},
		},
	}
}

func strptr(s string) *string { return &s }

func TestLinearize_ParentChildOrder(t *testing.T) {
	// Node A (root, "hi") with child B (assistant "hello", model m1):
	// two messages in order, B's parent recorded as A's node id.
	b := textMessage("msg-b", "assistant", "hello")
	b.Metadata = json.RawMessage(`{"model_slug": "m1"}`)

	conv := &Conversation{
		Title: "t",
		Mapping: map[string]MappingNode{
			"node-a": {ID: "node-a", Message: textMessage("msg-a", "user", "hi"), Children: []string{"node-b"}},
			"node-b": {ID: "node-b", Message: b, Parent: strptr("node-a"), Children: nil},
		},
	}

	got := Linearize(conv)
	if len(got) != 2 {
		t.Fatalf("len(Linearize()) = %d, want 2", len(got))
	}

	if got[0].MessageID != "msg-a" {
		t.Errorf("first message = %q, want msg-a", got[0].MessageID)
	}
	if got[0].ParentID != nil {
		t.Errorf("root ParentID = %v, want nil", *got[0].ParentID)
	}
	if got[0].OrderIndex != 0 {
		t.Errorf("root OrderIndex = %d, want 0", got[0].OrderIndex)
	}

	if got[1].MessageID != "msg-b" {
		t.Errorf("second message = %q, want msg-b", got[1].MessageID)
	}
	if got[1].ParentID == nil || *got[1].ParentID != "node-a" {
		t.Errorf("child ParentID = %v, want node-a", got[1].ParentID)
	}
	if got[1].OrderIndex != 1 {
		t.Errorf("child OrderIndex = %d, want 1", got[1].OrderIndex)
	}

	if slug := ModelSlug(got[1].Message, conv); slug == nil || *slug != "m1" {
		t.Errorf("ModelSlug = %v, want m1", slug)
	}
}

func TestLinearize_SentinelParentIsRoot(t *testing.T) {
	conv := &Conversation{
		Mapping: map[string]MappingNode{
			"n1": {ID: "n1", Message: textMessage("m1", "user", "hi"), Parent: strptr(rootSentinel), Children: nil},
		},
	}

	got := Linearize(conv)
	if len(got) != 1 {
		t.Fatalf("len(Linearize()) = %d, want 1", len(got))
	}
	if got[0].MessageID != "m1" {
		t.Errorf("message = %q, want m1", got[0].MessageID)
	}
}

func TestLinearize_SentinelKeyFallback(t *testing.T) {
	// Every node has a real parent, but the mapping holds a node keyed by
	// the sentinel literal: traversal starts there.
	conv := &Conversation{
		Mapping: map[string]MappingNode{
			rootSentinel: {ID: rootSentinel, Parent: strptr("elsewhere"), Children: []string{"n1"}},
			"n1":         {ID: "n1", Message: textMessage("m1", "user", "hi"), Parent: strptr("elsewhere"), Children: nil},
		},
	}

	got := Linearize(conv)
	if len(got) != 1 {
		t.Fatalf("len(Linearize()) = %d, want 1", len(got))
	}
	if got[0].ParentID == nil || *got[0].ParentID != rootSentinel {
		t.Errorf("ParentID = %v, want %q", got[0].ParentID, rootSentinel)
	}
}

func TestLinearize_NoRootYieldsNothing(t *testing.T) {
	// No parentless node and no sentinel key: zero messages, not an error.
	conv := &Conversation{
		Mapping: map[string]MappingNode{
			"n1": {ID: "n1", Message: textMessage("m1", "user", "hi"), Parent: strptr("n2"), Children: []string{"n2"}},
			"n2": {ID: "n2", Message: textMessage("m2", "assistant", "yo"), Parent: strptr("n1"), Children: []string{"n1"}},
		},
	}

	if got := Linearize(conv); got != nil {
		t.Errorf("Linearize() = %v, want nil", got)
	}
}

func TestLinearize_CycleSafe(t *testing.T) {
	// n2's children point back at n1; the revisit is skipped silently.
	conv := &Conversation{
		Mapping: map[string]MappingNode{
			"n1": {ID: "n1", Message: textMessage("m1", "user", "a"), Children: []string{"n2"}},
			"n2": {ID: "n2", Message: textMessage("m2", "assistant", "b"), Parent: strptr("n1"), Children: []string{"n1"}},
		},
	}

	got := Linearize(conv)
	if len(got) != 2 {
		t.Fatalf("len(Linearize()) = %d, want 2 (cycle must not duplicate)", len(got))
	}
}

func TestLinearize_SharedChildVisitedOnce(t *testing.T) {
	// Diamond: both n2 and n3 list n4 as a child; n4 is emitted once,
	// parented to whichever branch reached it first (n2, pre-order).
	conv := &Conversation{
		Mapping: map[string]MappingNode{
			"n1": {ID: "n1", Message: textMessage("m1", "user", "a"), Children: []string{"n2", "n3"}},
			"n2": {ID: "n2", Message: textMessage("m2", "assistant", "b"), Parent: strptr("n1"), Children: []string{"n4"}},
			"n3": {ID: "n3", Message: textMessage("m3", "assistant", "c"), Parent: strptr("n1"), Children: []string{"n4"}},
			"n4": {ID: "n4", Message: textMessage("m4", "user", "d"), Parent: strptr("n2"), Children: nil},
		},
	}

	got := Linearize(conv)
	if len(got) != 4 {
		t.Fatalf("len(Linearize()) = %d, want 4", len(got))
	}
	order := []string{"m1", "m2", "m4", "m3"}
	for i, want := range order {
		if got[i].MessageID != want {
			t.Errorf("message[%d] = %q, want %q", i, got[i].MessageID, want)
		}
	}
	if got[2].ParentID == nil || *got[2].ParentID != "n2" {
		t.Errorf("shared child ParentID = %v, want n2", got[2].ParentID)
	}
}

func TestLinearize_SkippedNodeKeepsChildrenAndParentID(t *testing.T) {
	// n2 is whitespace-only: filtered out, but n3 is still visited and
	// records the skipped n2 as its parent, not the grandparent n1.
	conv := &Conversation{
		Mapping: map[string]MappingNode{
			"n1": {ID: "n1", Message: textMessage("m1", "user", "hi"), Children: []string{"n2"}},
			"n2": {ID: "n2", Message: textMessage("m2", "system", "   \n\t"), Parent: strptr("n1"), Children: []string{"n3"}},
			"n3": {ID: "n3", Message: textMessage("m3", "assistant", "hello"), Parent: strptr("n2"), Children: nil},
		},
	}

	got := Linearize(conv)
	if len(got) != 2 {
		t.Fatalf("len(Linearize()) = %d, want 2", len(got))
	}
	if got[0].MessageID != "m1" || got[1].MessageID != "m3" {
		t.Fatalf("messages = [%s %s], want [m1 m3]", got[0].MessageID, got[1].MessageID)
	}
	if got[1].ParentID == nil || *got[1].ParentID != "n2" {
		t.Errorf("m3 ParentID = %v, want the skipped node n2", got[1].ParentID)
	}
	// Order indexes stay contiguous over emitted messages only.
	if got[0].OrderIndex != 0 || got[1].OrderIndex != 1 {
		t.Errorf("order indexes = [%d %d], want [0 1]", got[0].OrderIndex, got[1].OrderIndex)
	}
}

func TestLinearize_Filtering(t *testing.T) {
	hidden := textMessage("mh", "system", "secret")
	hidden.Metadata = json.RawMessage(`{"is_visually_hidden_from_conversation": true}`)

	empty := &Message{ID: "me", Author: Author{Role: "system"}, Content: Content{ContentType: "text"}}

	withAsset := &Message{ID: "ma", Author: Author{Role: "user"}, Content: Content{
		ContentType: "multimodal_text",
		Parts: []Part{
			{Kind: PartText, Text: "  "},
			{Kind: PartAsset, Asset: &AssetPointer{AssetPointer: "file-service://file-x", ContentType: "image_asset_pointer"}},
		},
	}}

	cases := []struct {
		name string
		msg  *Message
		want bool
	}{
		{"hidden by metadata", hidden, true},
		{"no parts", empty, true},
		{"whitespace only", textMessage("mw", "user", " \t "), true},
		{"real text", textMessage("mt", "user", "hi"), false},
		{"asset part keeps message", withAsset, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldSkip(tc.msg); got != tc.want {
				t.Errorf("shouldSkip() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLinearize_MissingChildIsEmptySubtree(t *testing.T) {
	conv := &Conversation{
		Mapping: map[string]MappingNode{
			"n1": {ID: "n1", Message: textMessage("m1", "user", "hi"), Children: []string{"ghost", "n2"}},
			"n2": {ID: "n2", Message: textMessage("m2", "assistant", "yo"), Parent: strptr("n1"), Children: nil},
		},
	}

	got := Linearize(conv)
	if len(got) != 2 {
		t.Fatalf("len(Linearize()) = %d, want 2", len(got))
	}
}

func TestLinearize_DeterministicAcrossRuns(t *testing.T) {
	// Two parentless nodes force a root tie; the traversal must not
	// depend on map iteration order.
	build := func() *Conversation {
		return &Conversation{
			Mapping: map[string]MappingNode{
				"r2": {ID: "r2", Message: textMessage("mr2", "user", "other root"), Children: nil},
				"r1": {ID: "r1", Message: textMessage("mr1", "user", "root"), Children: []string{"c1"}},
				"c1": {ID: "c1", Message: textMessage("mc1", "assistant", "child"), Parent: strptr("r1"), Children: nil},
			},
		}
	}

	first := Linearize(build())
	for i := 0; i < 20; i++ {
		got := Linearize(build())
		if len(got) != len(first) {
			t.Fatalf("run %d: len = %d, want %d", i, len(got), len(first))
		}
		for j := range got {
			if got[j].MessageID != first[j].MessageID || got[j].OrderIndex != first[j].OrderIndex {
				t.Fatalf("run %d: message[%d] = %s/%d, want %s/%d",
					i, j, got[j].MessageID, got[j].OrderIndex, first[j].MessageID, first[j].OrderIndex)
			}
		}
	}

	// The winning root is the lexicographically smallest candidate.
	if first[0].MessageID != "mr1" {
		t.Errorf("root message = %q, want mr1 (root r1 < r2)", first[0].MessageID)
	}
}

package board

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jaakkos/whiteboard/internal/domain"
)

const lineBoard = `{"elements":[{"id":"1","type":"line","x":0,"y":0,"color":"#000","strokeWidth":1}]}`

func TestGetWhiteboard_Empty(t *testing.T) {
	store, _ := newTestStore()
	s := testServer(store)

	result, err := callTool(t, s, "get_whiteboard", map[string]any{})
	if err != nil {
		t.Fatalf("get_whiteboard: %v", err)
	}
	if got := resultText(t, result); got != `{"elements":[]}` {
		t.Errorf("text = %s, want empty document", got)
	}
}

func TestReplaceWhiteboard_PersistsAndReads(t *testing.T) {
	store, repo := newTestStore()
	s := testServer(store)

	result, err := callTool(t, s, "replace_whiteboard", map[string]any{"document": lineBoard})
	if err != nil {
		t.Fatalf("replace_whiteboard: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "1 elements") {
		t.Errorf("text = %q", text)
	}
	if repo.doc == nil || string(repo.doc.Bytes()) != lineBoard {
		t.Error("document was not persisted")
	}

	result, err = callTool(t, s, "get_whiteboard", map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if got := resultText(t, result); got != lineBoard {
		t.Errorf("get_whiteboard = %s, want %s", got, lineBoard)
	}
}

func TestReplaceWhiteboard_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		validate bool
	}{
		{name: "missing document", args: map[string]any{}},
		{name: "invalid JSON", args: map[string]any{"document": "{nope"}},
		{name: "not an object", args: map[string]any{"document": "[1]"}},
		{name: "validation", args: map[string]any{"document": `{"elements":[{"id":"","type":"line"}]}`}, validate: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, repo := newTestStore()
			s := testServer(store, WithPayloadValidation(tt.validate))
			if _, err := callTool(t, s, "replace_whiteboard", tt.args); err == nil {
				t.Error("expected error")
			}
			if repo.doc != nil {
				t.Error("nothing should be persisted")
			}
		})
	}
}

func TestDescribeWhiteboard(t *testing.T) {
	store, _ := newTestStore()
	s := testServer(store)

	result, err := callTool(t, s, "describe_whiteboard", map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if got := resultText(t, result); got != "Whiteboard is empty." {
		t.Errorf("empty describe = %q", got)
	}

	doc, _ := domain.ParseDocument([]byte(`{"elements":[
		{"id":"a","type":"circle","x":1,"y":2,"radius":3},
		{"id":"b","type":"text","x":4,"y":5,"text":"hello"},
		{"id":"c","type":"circle","x":0,"y":0,"radius":1}]}`))
	if err := store.Replace(doc); err != nil {
		t.Fatal(err)
	}
	result, err = callTool(t, s, "describe_whiteboard", map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, result)
	for _, want := range []string{"3 elements", "circle: 2", "text: 1", `#b text at (4, 5) "hello"`} {
		if !strings.Contains(text, want) {
			t.Errorf("describe output missing %q:\n%s", want, text)
		}
	}
}

func TestDescribeWhiteboard_MalformedDocument(t *testing.T) {
	store, _ := newTestStore()
	doc, _ := domain.ParseDocument([]byte(`{"elements":"not-a-list"}`))
	if err := store.Replace(doc); err != nil {
		t.Fatal(err)
	}
	if _, err := callTool(t, testServer(store), "describe_whiteboard", map[string]any{}); err == nil {
		t.Error("expected error for malformed document")
	}
}

func TestDocumentResource(t *testing.T) {
	store, _ := newTestStore()
	doc, _ := domain.ParseDocument([]byte(lineBoard))
	if err := store.Replace(doc); err != nil {
		t.Fatal(err)
	}
	s := testServer(store)

	raw, err := rpc(t, s, "resources/read", map[string]any{"uri": ResourceURI})
	if err != nil {
		t.Fatalf("resources/read: %v", err)
	}
	var result struct {
		Contents []struct {
			URI      string `json:"uri"`
			MIMEType string `json:"mimeType"`
			Text     string `json:"text"`
		} `json:"contents"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(result.Contents))
	}
	c := result.Contents[0]
	if c.URI != ResourceURI || c.MIMEType != "application/json" || c.Text != lineBoard {
		t.Errorf("content = %+v", c)
	}
}

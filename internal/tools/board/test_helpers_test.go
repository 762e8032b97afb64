package board

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jaakkos/whiteboard/internal/app"
	"github.com/jaakkos/whiteboard/internal/domain"
)

// mockRepository implements app.DocumentRepository for tests. State is kept in memory.
type mockRepository struct {
	doc *domain.Document
	mu  sync.Mutex
}

func (m *mockRepository) Load() (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return domain.Document{}, app.ErrNoDocument
	}
	return *m.doc, nil
}

func (m *mockRepository) Save(d domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = &d
	return nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// testServer creates a MCPServer with all tools registered for testing.
func testServer(store *app.DocumentStore, opts ...RegisterOption) *server.MCPServer {
	s := server.NewMCPServer("test", "1.0.0", server.WithResourceCapabilities(false, false))
	Register(s, store, testLogger(), opts...)
	return s
}

func newTestStore() (*app.DocumentStore, *mockRepository) {
	repo := &mockRepository{}
	store := app.NewDocumentStore(repo, testLogger())
	store.Load()
	return store, repo
}

// rpc sends one JSON-RPC request through HandleMessage and returns the raw result.
func rpc(t *testing.T, s *server.MCPServer, method string, params map[string]any) (json.RawMessage, error) {
	t.Helper()

	reqJSON, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	respJSON := s.HandleMessage(context.Background(), reqJSON)

	respBytes, marshalErr := json.Marshal(respJSON)
	if marshalErr != nil {
		t.Fatalf("marshal response: %v", marshalErr)
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

// callTool calls a registered tool via the MCPServer's HandleMessage.
// Returns the parsed CallToolResult or an error.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) (*mcp.CallToolResult, error) {
	t.Helper()

	raw, err := rpc(t, s, "tools/call", map[string]any{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		return nil, err
	}
	var result mcp.CallToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	return &result, nil
}

// resultText extracts the first text content from a CallToolResult.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("result is nil")
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no text content in result")
	return ""
}

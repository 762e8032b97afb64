package board

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jaakkos/whiteboard/internal/app"
	"github.com/jaakkos/whiteboard/internal/domain"
)

// registerGetWhiteboard registers the get_whiteboard tool.
func registerGetWhiteboard(s *server.MCPServer, store *app.DocumentStore, logger *log.Logger) {
	s.AddTool(
		mcp.NewTool("get_whiteboard",
			mcp.WithDescription("Return the shared whiteboard document as JSON: {\"elements\": [...]} in z-order."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			logger.Println("Calling tool: get_whiteboard")
			return mcp.NewToolResultText(string(store.Get().Bytes())), nil
		},
	)
}

// registerDescribeWhiteboard registers the describe_whiteboard tool.
func registerDescribeWhiteboard(s *server.MCPServer, store *app.DocumentStore, logger *log.Logger) {
	s.AddTool(
		mcp.NewTool("describe_whiteboard",
			mcp.WithDescription("Summarize the whiteboard: element count per shape kind and each element's id, kind and position."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			logger.Println("Calling tool: describe_whiteboard")
			elements, err := store.Elements()
			if err != nil {
				return nil, fmt.Errorf("whiteboard does not follow the element contract: %w", err)
			}
			return mcp.NewToolResultText(describe(elements)), nil
		},
	)
}

// registerReplaceWhiteboard registers the replace_whiteboard tool.
func registerReplaceWhiteboard(s *server.MCPServer, store *app.DocumentStore, logger *log.Logger, validate bool) {
	s.AddTool(
		mcp.NewTool("replace_whiteboard",
			mcp.WithDescription("Replace the whole whiteboard document and persist it. Elements not in the new document are removed."),
			mcp.WithString("document", mcp.Required(), mcp.Description("JSON object, e.g. {\"elements\":[{\"id\":\"1\",\"type\":\"line\",\"x\":0,\"y\":0,\"color\":\"#000\",\"strokeWidth\":1}]}")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			logger.Println("Calling tool: replace_whiteboard")
			args := req.GetArguments()
			raw, _ := args["document"].(string)
			if raw == "" {
				return nil, fmt.Errorf("document is required")
			}
			doc, err := domain.ParseDocument([]byte(raw))
			if err != nil {
				return nil, err
			}
			if validate {
				if err := doc.Validate(); err != nil {
					return nil, err
				}
			}
			if err := store.Replace(doc); err != nil {
				logger.Printf("replace_whiteboard: %v", err)
				return nil, err
			}
			return mcp.NewToolResultText(fmt.Sprintf("Whiteboard replaced (%d elements).", store.ElementCount())), nil
		},
	)
}

func describe(elements []domain.Element) string {
	if len(elements) == 0 {
		return "Whiteboard is empty."
	}

	counts := make(map[domain.ShapeKind]int)
	for _, el := range elements {
		counts[el.Type]++
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	var buf strings.Builder
	fmt.Fprintf(&buf, "Whiteboard: %d elements\n", len(elements))
	for _, k := range kinds {
		name := k
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(&buf, "  %s: %d\n", name, counts[domain.ShapeKind(k)])
	}
	buf.WriteString("\nElements (back to front):\n")
	for _, el := range elements {
		fmt.Fprintf(&buf, "  #%s %s at (%g, %g)", el.ID, el.Type, el.X, el.Y)
		if el.Text != nil {
			fmt.Fprintf(&buf, " %q", *el.Text)
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

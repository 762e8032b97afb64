package board

import (
	"context"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jaakkos/whiteboard/internal/app"
)

// registerResources adds the whiteboard document as a readable MCP resource.
func registerResources(s *server.MCPServer, store *app.DocumentStore, logger *log.Logger) {
	s.AddResource(
		mcp.NewResource(
			ResourceURI,
			"Whiteboard document",
			mcp.WithResourceDescription("The shared whiteboard document: {\"elements\": [...]} in z-order."),
			mcp.WithMIMEType("application/json"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			logger.Println("Resource read: document")
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      req.Params.URI,
					MIMEType: "application/json",
					Text:     string(store.Get().Bytes()),
				},
			}, nil
		},
	)
}

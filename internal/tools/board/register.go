// Package board exposes the whiteboard document to MCP clients as tools and a resource.
package board

import (
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/jaakkos/whiteboard/internal/app"
)

// ResourceURI is the URI of the whiteboard document resource.
const ResourceURI = "whiteboard://document"

// RegisterOption configures optional behavior for tool registration.
type RegisterOption func(*registerOpts)

type registerOpts struct {
	validate bool
}

// WithPayloadValidation makes replace_whiteboard reject documents that break the element contract.
func WithPayloadValidation(enabled bool) RegisterOption {
	return func(o *registerOpts) { o.validate = enabled }
}

// Register registers the whiteboard tools and resource with the mcp-go server.
func Register(s *server.MCPServer, store *app.DocumentStore, logger *log.Logger, opts ...RegisterOption) {
	var o registerOpts
	for _, opt := range opts {
		opt(&o)
	}

	registerGetWhiteboard(s, store, logger)
	registerDescribeWhiteboard(s, store, logger)
	registerReplaceWhiteboard(s, store, logger, o.validate)

	registerResources(s, store, logger)
}

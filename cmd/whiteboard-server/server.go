package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/jaakkos/whiteboard/internal/api"
	"github.com/jaakkos/whiteboard/internal/app"
	"github.com/jaakkos/whiteboard/internal/policy"
	"github.com/jaakkos/whiteboard/internal/repository"
	"github.com/jaakkos/whiteboard/internal/tools/board"
)

const mcpInstructions = `This server holds one shared whiteboard document: {"elements": [...]} in z-order.
Each element has id, type (line, rectangle, circle, text), x, y, optional width/height/radius/text, color and strokeWidth.
Use get_whiteboard or describe_whiteboard to read it. replace_whiteboard overwrites the whole document; there is no merge.`

// runServer loads the document, serves HTTP until ctx is cancelled or a signal
// arrives, then shuts down gracefully.
func runServer(ctx context.Context, pol *policy.Policy) error {
	logger, closeLog := setupLogger(pol.LogFile())
	defer closeLog()

	logger.Println("Starting whiteboard server...")
	logger.Printf("Data file: %s (backend=%s)", pol.DataFile(), pol.StorageBackend())

	repo, err := repository.NewDocumentRepository(pol.StorageBackend(), pol.DataFile())
	if err != nil {
		return fmt.Errorf("document repository: %w", err)
	}
	defer func() {
		if c, ok := repo.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				logger.Printf("Warning: close document repository: %v", err)
			}
		}
	}()

	store := app.NewDocumentStore(repo, logger)
	store.Load()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var watcher *app.FileWatcher
	if pol.WatchDataFile() {
		if pol.StorageBackend() == repository.BackendJSON {
			watcher = app.NewFileWatcher(pol.DataFile(), store, logger)
			go watcher.Start(ctx)
			logger.Printf("Watching %s for external edits", pol.DataFile())
		} else {
			logger.Printf("Warning: watch_data_file only applies to the json backend, ignoring")
		}
	}

	ln, err := net.Listen("tcp", pol.Addr())
	if err != nil {
		return fmt.Errorf("HTTP listen: %w", err)
	}
	httpServer := &http.Server{
		Handler:           newHandler(store, pol, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	logger.Printf("Server running on http://localhost:%d", port)
	if pol.MCPEnabled() {
		logger.Printf("  MCP clients connect at: http://localhost:%d/mcp", port)
	}

	select {
	case <-ctx.Done():
		logger.Println("Shutting down...")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown error: %v", err)
	}
	if watcher != nil {
		watcher.Stop()
	}

	logger.Println("Server stopped")
	return nil
}

// newHandler builds the HTTP handler: whiteboard API, health, optional MCP endpoint, middleware.
func newHandler(store *app.DocumentStore, pol *policy.Policy, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()

	h := api.NewHandler(store,
		api.WithPayloadValidation(pol.ValidatePayload()),
		api.WithMaxBodyBytes(pol.MaxBodyBytes()),
		api.WithLogger(logger),
	)
	h.RegisterRoutes(mux)

	if pol.MCPEnabled() {
		mcpServer := server.NewMCPServer(
			"whiteboard",
			Version,
			server.WithInstructions(mcpInstructions),
			server.WithResourceCapabilities(false, false),
		)
		board.Register(mcpServer, store, logger, board.WithPayloadValidation(pol.ValidatePayload()))
		mux.Handle("/mcp", server.NewStreamableHTTPServer(mcpServer))
	}

	return api.Wrap(mux, logger)
}

// setupLogger creates a logger that writes to stderr and, when logFilePath is
// set, appends to that file too. The returned func closes the file.
func setupLogger(logFilePath string) (*log.Logger, func()) {
	writers := []io.Writer{os.Stderr}
	closeFn := func() {}

	if logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err == nil {
			f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				writers = append(writers, f)
				closeFn = func() { _ = f.Close() }
			} else {
				fmt.Fprintf(os.Stderr, "[whiteboard] Warning: cannot open log file %s: %v\n", logFilePath, err)
			}
		} else {
			fmt.Fprintf(os.Stderr, "[whiteboard] Warning: cannot create log dir %s: %v\n", filepath.Dir(logFilePath), err)
		}
	}

	return log.New(io.MultiWriter(writers...), "[whiteboard] ", log.LstdFlags|log.Lshortfile), closeFn
}

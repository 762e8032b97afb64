package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaakkos/whiteboard/internal/app"
	"github.com/jaakkos/whiteboard/internal/policy"
	"github.com/jaakkos/whiteboard/internal/repository"
	"github.com/jaakkos/whiteboard/internal/repository/sqlite"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:     "whiteboard-server",
		Version: Version,
		Short:   "Persistence backend for a collaborative whiteboard",
		Long: `whiteboard-server keeps one shared whiteboard document and serves it over HTTP.

GET /api/whiteboard returns the document, POST /api/whiteboard replaces it.
Every replace is written to the data file (DATA_FILE, default ./whiteboardData.json).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := policy.Load(envFile)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), policy.New(cfg))
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.SetVersionTemplate("whiteboard-server {{.Version}}\n")

	root.AddCommand(newStatusCmd(&envFile))
	return root
}

// newStatusCmd implements "whiteboard-server status": prints the persisted element count.
func newStatusCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the number of elements in the persisted whiteboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := policy.Load(*envFile)
			if err != nil {
				return err
			}
			pol := policy.New(cfg)
			out := cmd.OutOrStdout()

			// Opening a sqlite store creates the file and schema; report an
			// absent database without touching disk.
			if pol.StorageBackend() == repository.BackendSQLite {
				if _, err := os.Stat(pol.DataFile()); errors.Is(err, fs.ErrNotExist) {
					fmt.Fprintf(out, "file=%s backend=%s elements=0\n", pol.DataFile(), pol.StorageBackend())
					return nil
				}
			}

			repo, err := repository.NewDocumentRepository(pol.StorageBackend(), pol.DataFile())
			if err != nil {
				return err
			}
			defer func() {
				if c, ok := repo.(interface{ Close() error }); ok {
					_ = c.Close()
				}
			}()

			doc, err := repo.Load()
			if err != nil && !errors.Is(err, app.ErrNoDocument) {
				return fmt.Errorf("%s: %w", pol.DataFile(), err)
			}
			board, err := doc.Board()
			if err != nil {
				return fmt.Errorf("%s: %w", pol.DataFile(), err)
			}

			fmt.Fprintf(out, "file=%s backend=%s elements=%d", pol.DataFile(), pol.StorageBackend(), len(board.Elements))
			if st, ok := repo.(*sqlite.Store); ok {
				if ts, found, err := st.UpdatedAt(); err == nil && found {
					fmt.Fprintf(out, " updated=%s", ts.Format("2006-01-02T15:04:05Z07:00"))
				}
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/testweave/internal/logger"
	"github.com/praetorian-inc/testweave/pkg/serve"
	"github.com/praetorian-inc/testweave/pkg/watch"
)

var (
	serveHost    string
	servePort    int
	serveStdio   bool
	serveWatch   bool
	serveNoStore bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local TestWeave server",
	Long: `Run the local HTTP API (default 127.0.0.1:7341) used by the browser UI and
editor integrations.

With --stdio the server speaks line-delimited JSON on stdin/stdout
instead, until stdin closes or SIGTERM is received.

With --watch the workspace is rescanned whenever a scannable file
changes; subscribers of /api/events are notified of every scan.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Address to listen on")
	serveCmd.Flags().IntVar(&servePort, "port", 7341, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveStdio, "stdio", false, "Serve NDJSON on stdin/stdout instead of HTTP")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Rescan the workspace when files change")
	serveCmd.Flags().BoolVar(&serveNoStore, "no-store", false, "Do not store scans in the workspace database")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.ForComponent("serve")

	state, err := serve.NewState(serve.Options{
		Root:    rootDir,
		Persist: !serveNoStore,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	// Set up signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveWatch {
		if err := startWatch(ctx, state); err != nil {
			return err
		}
	}

	if serveStdio {
		srv := serve.NewServer(state, cmd.InOrStdin(), cmd.OutOrStdout())
		if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	addr := net.JoinHostPort(serveHost, strconv.Itoa(servePort))
	return serve.ListenAndServe(ctx, addr, state)
}

// startWatch scans once, then rescans the startup workspace on every
// batch of changes until ctx is done.
func startWatch(ctx context.Context, state *serve.State) error {
	log := logger.ForComponent("watch")

	cfg, err := state.Config()
	if err != nil {
		return err
	}
	ws := state.Workspace()

	if _, err := state.Scan(ctx, nil); err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}

	w, err := watch.New(watch.Config{
		Root:          ws,
		Include:       cfg.Include,
		Exclude:       cfg.Exclude,
		IncludeHidden: cfg.IncludeHidden,
		Logger:        log,
	}, func(paths []string) {
		if state.Workspace() != ws {
			log.Debug("workspace changed, ignoring file events", "watched", ws)
			return
		}
		log.Info("files changed, rescanning", "count", len(paths), "first", paths[0])
		if _, err := state.Scan(ctx, nil); err != nil {
			log.Error("rescan failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	go func() {
		if err := w.Run(ctx); err != nil {
			log.Error("watcher stopped", "error", err)
		}
	}()
	return nil
}

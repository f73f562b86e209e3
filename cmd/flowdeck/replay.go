package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tinytelemetry/flowdeck/internal/flowstore"
	"github.com/tinytelemetry/flowdeck/internal/model"
	"github.com/tinytelemetry/flowdeck/internal/replay"
	"golang.org/x/sync/errgroup"
)

func newReplayCommand() *cobra.Command {
	var (
		file        string
		addr        string
		artifactDir string
		watch       bool
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Serve a captured flows file as a capture backend",
		Long: `replay serves a flows.json written by the capture script on the same HTTP
API as the capture backend (GET /flows, GET /health, GET /download/:file),
so the dashboard can be used without a live capture. Generate endpoints
answer 501.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), file, addr, artifactDir, watch)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "flows.json", "flows file to serve")
	cmd.Flags().StringVar(&addr, "addr", model.DefaultReplayAddr, "listen address")
	cmd.Flags().StringVar(&artifactDir, "artifact-dir", "", "directory served by /download (empty disables downloads)")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload the file when it changes")
	return cmd
}

func runReplay(parent context.Context, file, addr, artifactDir string, watch bool) error {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	store := flowstore.New()
	n, err := replay.LoadFile(file, store)
	if err != nil {
		return err
	}
	log.Printf("replay: loaded %d flows from %s", n, file)

	srv := replay.NewServer(addr, store, artifactDir)
	if err := srv.Start(); err != nil {
		return err
	}
	log.Printf("replay: serving on http://%s", srv.Addr())

	// Set up context and signal handling before errgroup
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			log.Printf("replay: received %s, shutting down", sig)
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if watch {
		g.Go(func() error {
			return replay.Watch(gctx, file, store)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if err := srv.Stop(); err != nil {
			return fmt.Errorf("replay: shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("replay: exited with error: %v", err)
		return err
	}
	return nil
}

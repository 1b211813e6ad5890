package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/flowsupport/internal/adapters/chunkfile"
	"github.com/0xcro3dile/flowsupport/internal/adapters/filewatcher"
	"github.com/0xcro3dile/flowsupport/internal/domain/usecases"
	"github.com/0xcro3dile/flowsupport/internal/logger"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		quiet   time.Duration
		initial bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reprocess and reload whenever PDFs in the raw directory change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := os.MkdirAll(a.cfg.Paths.RawDir, 0o755); err != nil {
				return err
			}
			idx, closeFn, err := a.index()
			if err != nil {
				return err
			}
			defer closeFn()
			store := usecases.NewVectorStore(a.newEmbedder(), idx, a.cfg.VectorStore.BatchSize)

			var last string
			if initial {
				last = a.rebuild(ctx, store, last)
			}

			w, err := filewatcher.NewFSNotifyWatcher(nil)
			if err != nil {
				return err
			}
			defer w.Stop()
			events, err := w.Watch(ctx, a.cfg.Paths.RawDir)
			if err != nil {
				return err
			}
			logger.Info("watching %s for PDF changes", a.cfg.Paths.RawDir)

			for batch := range filewatcher.Debounce(ctx, events, quiet) {
				for _, ev := range batch {
					logger.Debug("%s %s", ev.Operation, ev.Path)
				}
				logger.Info("%d change(s) detected, rebuilding", len(batch))
				last = a.rebuild(ctx, store, last)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&quiet, "quiet", 2*time.Second, "wait this long after the last change before rebuilding")
	cmd.Flags().BoolVar(&initial, "initial", true, "process and load once before watching")
	return cmd
}

// rebuild reprocesses the raw directory and reloads the collection unless the
// chunk digest equals last. It returns the digest now indexed. Failures are logged.
func (a *app) rebuild(ctx context.Context, store *usecases.VectorStore, last string) string {
	chunks, err := a.processor().ProcessAllDocuments(ctx)
	if err != nil {
		logger.Error("processing: %v", err)
		return last
	}
	digest, err := chunkfile.Digest(chunks)
	if err != nil {
		logger.Warn("digest: %v", err)
	}
	if digest != "" && digest == last {
		logger.Info("chunks unchanged, keeping index")
		return last
	}
	if err := store.Clear(ctx); err != nil {
		logger.Error("clearing collection: %v", err)
		return ""
	}
	if err := store.LoadDocuments(ctx, chunks); err != nil {
		logger.Error("loading: %v", err)
		return ""
	}
	logger.Info("index rebuilt with %d chunks", len(chunks))
	return digest
}

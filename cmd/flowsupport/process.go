package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/flowsupport/internal/adapters/chunkfile"
	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
	"github.com/0xcro3dile/flowsupport/internal/domain/usecases"
)

func newProcessCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Extract, chunk and categorize every PDF in the raw directory",
		Long: `Reads every *.pdf in paths.raw_dir, splits each page into overlapping
word windows, tags each chunk with a category and writes the result to
paths.chunks_file, replacing any previous output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chunks, err := a.processor().ProcessAllDocuments(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Processed %d chunks into %s\n", len(chunks), a.cfg.Paths.ChunksFile)
			printCategoryStats(cmd.OutOrStdout(), chunks)
			return nil
		},
	}
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Rebuild the vector collection from the processed chunk file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.vectorStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := a.reload(cmd.Context(), store)
			if err != nil {
				return err
			}
			cmd.Printf("Loaded %d chunks into collection %s\n", n, a.cfg.VectorStore.Collection)
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show processed chunk distribution and indexed chunk count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chunks, err := a.chunkRepo().Load(cmd.Context())
			switch {
			case errors.Is(err, chunkfile.ErrNoChunks):
				cmd.Println("No processed chunks yet.")
			case err != nil:
				return err
			default:
				cmd.Printf("Processed chunks: %d (%s)\n", len(chunks), a.cfg.Paths.ChunksFile)
				printCategoryStats(cmd.OutOrStdout(), chunks)
			}

			if a.cfg.VectorStore.Backend == "memory" {
				cmd.Println("Index: in-memory, filled on demand")
				return nil
			}
			idx, closeFn, err := a.index()
			if err != nil {
				return err
			}
			defer closeFn()
			n, err := idx.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("counting collection: %w", err)
			}
			cmd.Printf("Indexed chunks in %s: %d\n", a.cfg.VectorStore.Collection, n)
			return nil
		},
	}
}

func printCategoryStats(w io.Writer, chunks []entities.Chunk) {
	if len(chunks) == 0 {
		return
	}
	fmt.Fprintln(w, "Category distribution:")
	for _, c := range usecases.CategoryStats(chunks) {
		fmt.Fprintf(w, "  %-10s %d\n", c.Category, c.Count)
	}
}

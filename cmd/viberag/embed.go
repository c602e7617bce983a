package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gaiuszzang/VibeRAG/internal/service"
)

type embedOptions struct {
	chunks     string
	docID      string
	collection string
}

func newEmbedCmd(a *app) *cobra.Command {
	opts := &embedOptions{}
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed chunk records and upsert them into the vector store",
		Long: `Read a chunk record file, embed every chunk and upsert it into the collection,
one chunk at a time. Point ids derive from chunk ids, so re-running overwrites.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEmbed(cmd, a, opts)
		},
	}
	cmd.Flags().StringVar(&opts.chunks, "chunks", "", "chunk record file (required)")
	cmd.Flags().StringVar(&opts.docID, "doc-id", "", "document id stored with every point (required)")
	cmd.Flags().StringVar(&opts.collection, "collection", "", "collection name (default from config)")
	return cmd
}

func runEmbed(cmd *cobra.Command, a *app, opts *embedOptions) error {
	if opts.chunks == "" {
		return fmt.Errorf("--chunks is required")
	}
	if opts.docID == "" {
		return fmt.Errorf("--doc-id is required")
	}
	path, err := existingFile(opts.chunks)
	if err != nil {
		return fmt.Errorf("chunks: %w", err)
	}
	collection := opts.collection
	if collection == "" {
		collection = a.cfg.VectorStore.Collection
	}

	emb, err := newEmbedder(a.cfg.Embedder)
	if err != nil {
		return err
	}
	defer closeLogged(a.logger, "embedder", emb.Close)
	store, err := newStore(a.cfg.VectorStore)
	if err != nil {
		return err
	}
	defer closeLogged(a.logger, "vector store", store.Close)

	ix := service.NewIndexer(emb, store, service.IndexerConfig{
		Collection: collection,
		Dims:       a.cfg.Embedder.Dims,
		Distance:   a.cfg.VectorStore.Distance,
	}, a.logger)
	stats, err := ix.IndexFile(cmd.Context(), path, opts.docID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Done. Upserted %d points into '%s' for doc_id='%s'.\n", stats.Upserted, collection, opts.docID)
	return nil
}

func closeLogged(logger *zap.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Warn("close "+what, zap.Error(err))
	}
}

package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gaiuszzang/VibeRAG/internal/service"
	"github.com/gaiuszzang/VibeRAG/internal/tui"
)

type searchOptions struct {
	query       string
	docID       string
	topK        int
	collection  string
	interactive bool
}

func newSearchCmd(a *app) *cobra.Command {
	opts := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search indexed chunks by similarity",
		Long: `Embed a query and print the nearest chunks, best first. Use --doc-id to restrict
hits to one document, or --interactive for a prompt that keeps the clients open.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if opts.query != "" {
					return fmt.Errorf("give the query either as an argument or with --query, not both")
				}
				opts.query = args[0]
			}
			return runSearch(cmd, a, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "query text")
	cmd.Flags().StringVar(&opts.docID, "doc-id", "", "only return chunks of this document")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "number of results (default from config)")
	cmd.Flags().StringVar(&opts.collection, "collection", "", "collection name (default from config)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "open the interactive search prompt")
	return cmd
}

func runSearch(cmd *cobra.Command, a *app, opts *searchOptions) error {
	if !opts.interactive && strings.TrimSpace(opts.query) == "" {
		return fmt.Errorf("--query is required")
	}
	if opts.topK < 0 {
		return fmt.Errorf("--top-k must not be negative, got %d", opts.topK)
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

	searcher := service.NewSearcher(emb, store, service.SearcherConfig{
		Collection:  collection,
		TopK:        a.cfg.Search.TopK,
		HNSWEf:      a.cfg.Search.HNSWEf,
		MaxQueryLen: a.cfg.Search.MaxQueryLen,
	}, a.logger)

	if opts.interactive {
		m := tui.New(searcher, tui.Options{Collection: collection, DocID: opts.docID, TopK: opts.topK})
		_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
		return err
	}

	hits, err := searcher.Search(cmd.Context(), opts.query, opts.docID, opts.topK)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Query: %s\n", strings.TrimSpace(opts.query))
	return service.Render(cmd.OutOrStdout(), hits)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaiuszzang/VibeRAG/internal/chunker"
	"github.com/gaiuszzang/VibeRAG/internal/service"
)

type chunkOptions struct {
	input     string
	output    string
	docID     string
	targetLen int
	overlap   int
}

func newChunkCmd(a *app) *cobra.Command {
	opts := &chunkOptions{}
	cmd := &cobra.Command{
		Use:   "chunk",
		Short: "Split a text file into chunk records",
		Long: `Normalize a text file, split it into sentences, detect section headings and
write overlapping chunks to a newline-delimited JSON file. No network access.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("target-len") {
				opts.targetLen = a.cfg.Chunker.TargetLen
			}
			if !cmd.Flags().Changed("overlap") {
				opts.overlap = a.cfg.Chunker.Overlap
			}
			return runChunk(cmd, a, opts)
		},
	}
	cmd.Flags().StringVar(&opts.input, "input", "", "input text file (required)")
	cmd.Flags().StringVar(&opts.output, "output", "", "output chunk record file (required)")
	cmd.Flags().StringVar(&opts.docID, "doc-id", "myDocument", "document id used as chunk id prefix")
	cmd.Flags().IntVar(&opts.targetLen, "target-len", chunker.DefaultTargetLen, "maximum chunk length in characters")
	cmd.Flags().IntVar(&opts.overlap, "overlap", chunker.DefaultOverlap, "trailing overlap between chunks in characters")
	return cmd
}

func (o *chunkOptions) validate() (input, output string, err error) {
	if o.input == "" {
		return "", "", fmt.Errorf("--input is required")
	}
	if o.output == "" {
		return "", "", fmt.Errorf("--output is required")
	}
	if o.docID == "" {
		return "", "", fmt.Errorf("--doc-id must not be empty")
	}
	if o.targetLen <= 0 {
		return "", "", fmt.Errorf("--target-len must be positive, got %d", o.targetLen)
	}
	if o.overlap < 0 {
		return "", "", fmt.Errorf("--overlap must not be negative, got %d", o.overlap)
	}
	if input, err = existingFile(o.input); err != nil {
		return "", "", fmt.Errorf("input: %w", err)
	}
	if output, err = cleanPath(o.output); err != nil {
		return "", "", fmt.Errorf("output: %w", err)
	}
	return input, output, nil
}

func runChunk(cmd *cobra.Command, a *app, opts *chunkOptions) error {
	input, output, err := opts.validate()
	if err != nil {
		return err
	}
	cc := a.cfg.Chunker
	ch := chunker.New(
		chunker.WithTargetLen(opts.targetLen),
		chunker.WithOverlap(opts.overlap),
		chunker.WithShortSentenceLen(cc.ShortSentenceLen),
		chunker.WithHeadingRules(chunker.HeadingRules{
			MinLen:     cc.HeadingMinLen,
			MaxLen:     cc.HeadingMaxLen,
			MaxTextLen: cc.HeadingTextLen,
		}),
	)
	chunks, err := service.NewChunking(ch, a.logger).ChunkFile(input, output, opts.docID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d chunks to %s\n", len(chunks), output)
	return nil
}

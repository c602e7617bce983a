package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gaiuszzang/VibeRAG/internal/config"
	"github.com/gaiuszzang/VibeRAG/internal/logging"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.AppConfig
	logger *zap.Logger
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	root := &cobra.Command{
		Use:   "viberag",
		Short: "Chunk, index and search plain-text documents",
		Long: `viberag splits a plain-text document into overlapping, section-aware chunks,
embeds every chunk and stores it in a vector database, and answers similarity queries.

Examples:
  viberag chunk --input manual.txt --output manual.jsonl --doc-id manual
  viberag embed --chunks manual.jsonl --doc-id manual
  viberag search --query "how are chunks overlapped?" --doc-id manual`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Logging.Level = opts.logLevel
			}
			logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = logging.Sync(a.logger)
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config file (default ./"+config.DefaultPath+" if present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newChunkCmd(a),
		newEmbedCmd(a),
		newSearchCmd(a),
		newInitCmd(),
	)
	return root
}

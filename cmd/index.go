package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sunpeak/dispatchd/app"
	"github.com/sunpeak/dispatchd/config"
	"github.com/sunpeak/dispatchd/core/knowledge"
	"github.com/sunpeak/dispatchd/infra/logger"
)

var indexCmd = &cobra.Command{
	Use:   "index [docs-dir]",
	Short: "Build the knowledge index from a documents directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  buildIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func buildIndex(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dir := cfg.Knowledge.DocsDir
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no documents directory: pass one or set knowledge.docs_dir")
	}

	emb, err := app.NewEmbedder(cfg.Knowledge)
	if err != nil {
		return err
	}
	log := logger.New("index")
	index, err := knowledge.BuildIndex(ctx, dir, emb, log)
	if err != nil {
		return err
	}
	if err := index.Save(cfg.Knowledge.IndexPath); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	log.Infof("indexed %d chunks into %s", index.Len(), cfg.Knowledge.IndexPath)
	return nil
}

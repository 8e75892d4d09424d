package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"datapipe/internal/features"
)

func newFeaturesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "Export bag-of-words name features with multi-hot type labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, moves, err := ctx.loadMoves()
			if err != nil {
				return err
			}
			set := features.Build(moves)
			path := filepath.Join(cfg.FeaturesDir(), features.FileName)
			if err := features.Save(path, set); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"path":   path,
					"rows":   len(set.Rows),
					"terms":  len(set.Terms),
					"labels": set.Labels,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows (%d terms, %d labels) to %s\n",
				len(set.Rows), len(set.Terms), len(set.Labels), path)
			return nil
		},
	}
}

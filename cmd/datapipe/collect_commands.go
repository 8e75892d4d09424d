package main

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"datapipe/internal/collect"
	"datapipe/internal/ledger"
	"datapipe/internal/logging"
	"datapipe/internal/movetable"
	"datapipe/internal/pipeline"
	"datapipe/internal/preflight"
)

func newCollectCommand(ctx *commandContext) *cobra.Command {
	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Find, download and rename move videos",
	}

	collectCmd.AddCommand(newCollectMissingCommand(ctx))
	collectCmd.AddCommand(newCollectDownloadCommand(ctx))
	collectCmd.AddCommand(newCollectEmbedCommand(ctx))
	collectCmd.AddCommand(newCollectFixExtensionsCommand(ctx))
	collectCmd.AddCommand(newCollectFixEmbedCommand(ctx))

	return collectCmd
}

type entryView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Link string `json:"link,omitempty"`
}

func entryRows(entries []collect.Entry) ([]entryView, [][]string) {
	views := make([]entryView, len(entries))
	rows := make([][]string, len(entries))
	for i, e := range entries {
		views[i] = entryView{ID: e.Move.ID, Name: e.Move.Name, Link: e.Video.Link}
		rows[i] = []string{strconv.Itoa(e.Move.ID), e.Move.Name, e.Video.Link}
	}
	return views, rows
}

func newCollectMissingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "missing",
		Short: "Report moves without a video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, moves, videos, err := ctx.loadTables()
			if err != nil {
				return err
			}
			missing := collect.FindMissing(moves, videos)
			if err := collect.WriteMissing(cfg.Paths.ReportsDir, missing); err != nil {
				return err
			}
			views, rows := entryRows(missing.All)
			if err := printListing(cmd, ctx, listing{
				value:   views,
				empty:   "Every move has a video",
				headers: []string{"ID", "Name", "Link"},
				rows:    rows,
				aligns:  []columnAlignment{alignRight},
			}); err != nil {
				return err
			}
			if !ctx.jsonOutput() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d missing, %d with a link, %d need a link (reports in %s)\n",
					len(missing.All), len(missing.WithLink), len(missing.CallToAction), cfg.Paths.ReportsDir)
			}
			return nil
		},
	}
}

type downloadView struct {
	RunID   string      `json:"run_id"`
	Found   int         `json:"found"`
	Skipped int         `json:"skipped"`
	Renamed int         `json:"renamed"`
	Failed  []entryView `json:"failed"`
}

func newCollectDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Download linked videos for moves without one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			if err := preflight.Err(preflight.RunAll(cmd.Context(), cfg, preflight.ScopeCollect)); err != nil {
				return err
			}
			lock, err := pipeline.AcquireLock(cfg.LockPath())
			if err != nil {
				return err
			}
			defer lock.Release()

			_, moves, videos, err := ctx.loadTables()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			collector := &collect.Collector{
				Downloader: collect.YTDLP{Binary: cfg.YTDLPBinary()},
				Ledger:     store,
				Dir:        cfg.Paths.VideoSrc,
				RunID:      uuid.NewString(),
				Allow:      cfg.Whitelisted,
				Logger:     logger,
			}
			missing := collect.FindMissing(moves, videos)
			result, err := collector.Collect(cmd.Context(), missing.WithLink)
			if err != nil {
				return err
			}
			if err := collect.WriteResult(cfg.Paths.ReportsDir, result); err != nil {
				return err
			}

			updated, report, err := collect.UpdateVideos(moves, videos, result.Found, cfg.Paths.VideoSrc, logger)
			if err != nil {
				return err
			}
			if err := movetable.WriteVideos(cfg.Paths.VideoTable, updated); err != nil {
				return err
			}
			if err := collect.WriteEmbedErrors(cfg.Paths.ReportsDir, report); err != nil {
				return err
			}
			logger.Info("video table updated",
				logging.String("path", cfg.Paths.VideoTable),
				logging.Int("renamed", len(report.Renamed)),
			)

			view := downloadView{
				RunID:   collector.RunID,
				Found:   len(result.Found),
				Skipped: result.Skipped,
				Renamed: len(report.Renamed),
			}
			failed := make([]collect.Entry, len(result.Failed))
			for i, f := range result.Failed {
				failed[i] = f.Entry
			}
			view.Failed, _ = entryRows(failed)
			if ctx.jsonOutput() {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderStatusLine("Found", statusOK, fmt.Sprintf("%d (%d already collected)", view.Found, view.Skipped), colorize))
			failedKind := statusOK
			if len(view.Failed) > 0 {
				failedKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Failed", failedKind, strconv.Itoa(len(view.Failed)), colorize))
			fmt.Fprintln(out, renderStatusLine("Renamed", statusInfo, strconv.Itoa(view.Renamed), colorize))
			return nil
		},
	}
}

func newCollectEmbedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "embed",
		Short: "Rename clips to their canonical names and update the video table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			_, moves, videos, err := ctx.loadTables()
			if err != nil {
				return err
			}
			updated, report, err := collect.UpdateVideos(moves, videos, nil, cfg.Paths.VideoSrc, logger)
			if err != nil {
				return err
			}
			if err := movetable.WriteVideos(cfg.Paths.VideoTable, updated); err != nil {
				return err
			}
			if err := collect.WriteEmbedErrors(cfg.Paths.ReportsDir, report); err != nil {
				return err
			}
			rows := make([][]string, len(report.Renamed))
			for i, r := range report.Renamed {
				rows[i] = []string{strconv.Itoa(r.MoveID), r.From, r.To}
			}
			if err := printListing(cmd, ctx, listing{
				value:   report,
				empty:   "No clips renamed",
				headers: []string{"ID", "From", "To"},
				rows:    rows,
				aligns:  []columnAlignment{alignRight},
			}); err != nil {
				return err
			}
			if len(report.Missing) > 0 && !ctx.jsonOutput() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d rows had no clip and were marked unavailable (see %s)\n",
					len(report.Missing), collect.RenameErrorsFile)
			}
			return nil
		},
	}
}

func newCollectFixExtensionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fix-extensions",
		Short: "Append .mp4 to clips that lack it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			renamed, err := collect.FixExtensions(cfg.Paths.VideoSrc)
			if err != nil {
				return err
			}
			rows := make([][]string, len(renamed))
			for i, name := range renamed {
				rows[i] = []string{name}
			}
			return printListing(cmd, ctx, listing{
				value:   renamed,
				empty:   "All clips already end in .mp4",
				headers: []string{"Renamed"},
				rows:    rows,
			})
		},
	}
}

func newCollectFixEmbedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fix-embed",
		Short: "Point rows at Name_With_Underscores.mp4 clips when present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, moves, videos, err := ctx.loadTables()
			if err != nil {
				return err
			}
			fixed, changed, err := collect.FixEmbed(moves, videos, cfg.Paths.VideoSrc)
			if err != nil {
				return err
			}
			if changed > 0 {
				if err := movetable.WriteVideos(cfg.Paths.VideoTable, fixed); err != nil {
					return err
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]int{"changed": changed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d embed values\n", changed)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"datapipe/internal/collect"
	"datapipe/internal/media/thumbnail"
	"datapipe/internal/movetable"
	"datapipe/internal/preflight"
)

func newThumbnailsCommand(ctx *commandContext) *cobra.Command {
	thumbCmd := &cobra.Command{
		Use:   "thumbnails",
		Short: "Extract clip thumbnails and fill the video table",
	}
	thumbCmd.AddCommand(newThumbnailsExtractCommand(ctx))
	thumbCmd.AddCommand(newThumbnailsApplyCommand(ctx))
	return thumbCmd
}

func newThumbnailsExtractCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Grab the middle frame of every clip as a data URI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			if err := preflight.Err(preflight.RunAll(cmd.Context(), cfg, preflight.ScopeMedia)); err != nil {
				return err
			}
			extractor := thumbnail.FFmpeg{
				FFmpegBinary:  cfg.FFmpegBinary(),
				FFprobeBinary: cfg.FFprobeBinary(),
				Width:         cfg.Thumbnails.Width,
				Height:        cfg.Thumbnails.Height,
			}
			mapping, err := thumbnail.ExtractAll(cmd.Context(), cfg.Paths.VideoSrc, extractor, cfg.Thumbnails.BatchSize, logger)
			if err != nil {
				return err
			}
			if err := thumbnail.Save(cfg.ThumbnailsPath(), mapping); err != nil {
				return err
			}
			clips, err := thumbnail.ListClips(cfg.Paths.VideoSrc)
			if err != nil {
				return err
			}
			failed := thumbnail.Missing(clips, mapping)
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"path": cfg.ThumbnailsPath(), "produced": len(mapping), "failed": failed})
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderStatusLine("Thumbnails", statusOK, fmt.Sprintf("%d written to %s", len(mapping), cfg.ThumbnailsPath()), colorize))
			if len(failed) > 0 {
				fmt.Fprintln(out, renderStatusLine("Failed", statusWarn, fmt.Sprintf("%d clips: %v", len(failed), failed), colorize))
			}
			return nil
		},
	}
}

func newThumbnailsApplyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Fill the video table's thumbnail column from the mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			videos, err := movetable.LoadVideos(cfg.Paths.VideoTable)
			if err != nil {
				return err
			}
			thumbs, err := thumbnail.Load(cfg.ThumbnailsPath())
			if err != nil {
				return err
			}
			updated, missing := collect.UpdateThumbnails(videos, thumbs)
			if err := movetable.WriteVideos(cfg.Paths.VideoTable, updated); err != nil {
				return err
			}
			if err := collect.WriteThumbnailErrors(cfg.Paths.ReportsDir, missing); err != nil {
				return err
			}
			rows := make([][]string, len(missing))
			for i, v := range missing {
				rows[i] = []string{strconv.Itoa(v.ID), v.Title, v.Embed}
			}
			return printListing(cmd, ctx, listing{
				value:   missing,
				empty:   fmt.Sprintf("Thumbnails applied to %d rows", len(updated)),
				headers: []string{"ID", "Title", "Embed (fallback used)"},
				rows:    rows,
				aligns:  []columnAlignment{alignRight},
			})
		},
	}
}

func newVideosCommand(ctx *commandContext) *cobra.Command {
	videosCmd := &cobra.Command{
		Use:   "videos",
		Short: "Clip maintenance",
	}
	videosCmd.AddCommand(&cobra.Command{
		Use:   "resize",
		Short: "Rescale every clip into the destination directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			if err := preflight.Err(preflight.RunAll(cmd.Context(), cfg, preflight.ScopeMedia)); err != nil {
				return err
			}
			report, err := thumbnail.ResizeAll(cmd.Context(), cfg.FFmpegBinary(), cfg.Paths.VideoSrc, cfg.Paths.VideoDst,
				cfg.Videos.Width, cfg.Videos.Height, logger)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderStatusLine("Resized", statusOK, fmt.Sprintf("%d to %dx%d", len(report.Resized), cfg.Videos.Width, cfg.Videos.Height), colorize))
			if len(report.Failed) > 0 {
				fmt.Fprintln(out, renderStatusLine("Failed", statusWarn, fmt.Sprintf("%v", report.Failed), colorize))
			}
			return nil
		},
	})
	return videosCmd
}

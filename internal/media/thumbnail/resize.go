package thumbnail

import (
	"context"
	"log/slog"
	"path/filepath"

	"datapipe/internal/logging"
)

// ResizeReport summarizes a ResizeAll run.
type ResizeReport struct {
	Resized []string
	Failed  []string
}

// ResizeAll rescales every clip in srcDir into dstDir under the same name.
// Clips are processed serially; a failing clip is logged and recorded.
func ResizeAll(ctx context.Context, ffmpegBinary, srcDir, dstDir string, width, height int, logger *slog.Logger) (ResizeReport, error) {
	logger = logging.NewComponentLogger(logger, "videos")
	names, err := ListClips(srcDir)
	if err != nil {
		return ResizeReport{}, err
	}
	var report ResizeReport
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		err := Resize(ctx, ffmpegBinary, filepath.Join(srcDir, name), filepath.Join(dstDir, name), width, height)
		if err != nil {
			logging.WarnWithContext(logger, "resize failed", "resize_failed",
				logging.String("file", name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "inspect the source clip with ffprobe"),
				logging.String(logging.FieldImpact, "clip left at original size"),
			)
			report.Failed = append(report.Failed, name)
			continue
		}
		report.Resized = append(report.Resized, name)
	}
	logger.Info("videos resized",
		logging.Int("resized", len(report.Resized)),
		logging.Int("failed", len(report.Failed)),
	)
	return report, nil
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"datapipe/internal/config"
	"datapipe/internal/logging"
	"datapipe/internal/masks"
	"datapipe/internal/movegraph"
	"datapipe/internal/movetable"
	"datapipe/internal/preflight"
	"datapipe/internal/services"
)

// Stage names one pipeline step.
type Stage string

const (
	StageBuild   Stage = "build"
	StageRelabel Stage = "relabel"
	StageMasks   Stage = "masks"
)

// AllStages lists every stage in execution order.
var AllStages = []Stage{StageBuild, StageRelabel, StageMasks}

// Summary describes a finished run.
type Summary struct {
	RunID         string
	Stages        []Stage
	Nodes         int
	Edges         int
	OneSided      int
	NodeMapReused bool
	Masks         *masks.Result
	Duration      time.Duration
}

// Runner executes pipeline stages against one configuration.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a runner. A nil logger discards output.
func New(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{cfg: cfg, logger: logger, now: time.Now}
}

// state carries artifacts between stages within one run.
type state struct {
	graph     *movegraph.Graph
	relabeled *movegraph.Graph
}

// Run executes the requested stages in pipeline order; with no stages it runs
// them all. A stage whose predecessor is not part of the run loads that
// predecessor's artifact from disk.
func (r *Runner) Run(ctx context.Context, stages ...Stage) (*Summary, error) {
	if r.cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "run", "configuration missing", nil)
	}
	selected, err := normalizeStages(stages)
	if err != nil {
		return nil, err
	}

	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	scope := preflight.Scope(0)
	if slices.Contains(selected, StageBuild) {
		scope |= preflight.ScopeGraph
	}
	if err := preflight.Err(preflight.RunAll(ctx, r.cfg, scope)); err != nil {
		return nil, err
	}

	lock, err := AcquireLock(r.cfg.LockPath())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.logger, "pipeline"))
	start := r.now()
	logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Any("stages", selected),
		logging.String("lock", lock.Path()),
	)

	summary := &Summary{RunID: runID, Stages: selected}
	st := &state{}
	for _, stage := range selected {
		if err := r.runStage(ctx, stage, st, summary); err != nil {
			logging.ErrorWithContext(logger, "pipeline failed", "run_failed",
				logging.String(logging.FieldStage, string(stage)),
				logging.String("error_category", services.Category(err)),
				logging.Error(err),
			)
			return summary, err
		}
	}

	summary.Duration = r.now().Sub(start)
	logger.Info("pipeline finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("nodes", summary.Nodes),
		logging.Int("edges", summary.Edges),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (r *Runner) runStage(ctx context.Context, stage Stage, st *state, summary *Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stageCtx := services.WithStage(ctx, string(stage))
	logger := logging.WithContext(stageCtx, logging.NewComponentLogger(r.logger, "pipeline"))
	started := r.now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	var err error
	switch stage {
	case StageBuild:
		err = r.build(st, summary, logger)
	case StageRelabel:
		err = r.relabel(st, summary, logger)
	case StageMasks:
		err = r.generateMasks(st, summary, logger)
	default:
		err = fmt.Errorf("unknown stage %q", stage)
	}
	if err != nil {
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("duration", r.now().Sub(started)),
	)
	return nil
}

func (r *Runner) build(st *state, summary *Summary, logger *slog.Logger) error {
	moves, err := movetable.LoadMoves(r.cfg.Paths.MoveTable)
	if err != nil {
		return err
	}
	g, err := movegraph.Build(moves, movegraph.Options{Directed: r.cfg.Graph.Directed})
	if err != nil {
		return err
	}
	if oneSided := g.OneSided(); len(oneSided) > 0 {
		summary.OneSided = len(oneSided)
		logger.Debug("edges declared by one side only", logging.Int("count", len(oneSided)))
	}
	if err := movegraph.SaveAdjList(r.cfg.AdjListPath(), g); err != nil {
		return err
	}
	st.graph = g
	summary.Nodes = g.Len()
	summary.Edges = g.EdgeCount()
	logger.Info("graph built",
		logging.Int("nodes", g.Len()),
		logging.Int("edges", g.EdgeCount()),
		logging.Bool("directed", g.Directed()),
		logging.String("artifact", r.cfg.AdjListPath()),
	)
	return nil
}

func (r *Runner) relabel(st *state, summary *Summary, logger *slog.Logger) error {
	g := st.graph
	if g == nil {
		loaded, err := movegraph.LoadAdjList(r.cfg.AdjListPath(), r.cfg.Graph.Directed)
		if err != nil {
			return fmt.Errorf("load graph for relabel: %w", err)
		}
		g = loaded
	}
	nodeMap, reused, err := movegraph.ResolveNodeMap(r.cfg.NodeMapPath(), g)
	if err != nil {
		return err
	}
	relabeled, err := nodeMap.Apply(g)
	if err != nil {
		return err
	}
	if !reused {
		if err := movegraph.SaveNodeMap(r.cfg.NodeMapPath(), nodeMap); err != nil {
			return err
		}
	}
	if err := movegraph.SaveAdjList(r.cfg.RelabeledPath(), relabeled); err != nil {
		return err
	}
	st.relabeled = relabeled
	summary.NodeMapReused = reused
	summary.Nodes = relabeled.Len()
	summary.Edges = relabeled.EdgeCount()
	logger.Info("graph relabeled",
		logging.Int("nodes", relabeled.Len()),
		logging.Bool("map_reused", reused),
		logging.String("artifact", r.cfg.RelabeledPath()),
	)
	return nil
}

func (r *Runner) generateMasks(st *state, summary *Summary, logger *slog.Logger) error {
	g := st.relabeled
	if g == nil {
		loaded, err := movegraph.LoadAdjList(r.cfg.RelabeledPath(), r.cfg.Graph.Directed)
		if err != nil {
			return fmt.Errorf("load relabeled graph for masks: %w", err)
		}
		g = loaded
	}
	result, err := masks.Generate(g, masks.Options{
		TestSplit:       r.cfg.Dataset.TestSplit,
		Seed:            r.cfg.Dataset.Seed,
		WithReplacement: r.cfg.Dataset.SampleWithReplacement,
	}, logger)
	if err != nil {
		return err
	}
	train, val, test := r.cfg.MaskPaths()
	if err := masks.Save(masks.Paths{Train: train, Val: val, Test: test}, result.Masks); err != nil {
		return err
	}
	summary.Masks = result
	if summary.Nodes == 0 {
		summary.Nodes = g.Len()
		summary.Edges = g.EdgeCount()
	}
	nTrain, nVal, nTest := result.Masks.Counts()
	logger.Info("masks written",
		logging.Int("train", nTrain),
		logging.Int("val", nVal),
		logging.Int("test", nTest),
		logging.Int("components", result.Components),
		logging.String("directory", r.cfg.MasksDir()),
	)
	return nil
}

func normalizeStages(stages []Stage) ([]Stage, error) {
	if len(stages) == 0 {
		return slices.Clone(AllStages), nil
	}
	for _, s := range stages {
		if !slices.Contains(AllStages, s) {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "select stages",
				fmt.Sprintf("unknown stage %q", s), nil)
		}
	}
	var out []Stage
	for _, s := range AllStages {
		if slices.Contains(stages, s) {
			out = append(out, s)
		}
	}
	return out, nil
}

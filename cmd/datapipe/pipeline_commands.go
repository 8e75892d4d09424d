package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"datapipe/internal/movegraph"
	"datapipe/internal/pipeline"
)

type runView struct {
	RunID         string   `json:"run_id"`
	Stages        []string `json:"stages"`
	Nodes         int      `json:"nodes"`
	Edges         int      `json:"edges"`
	OneSided      int      `json:"one_sided_edges"`
	NodeMapReused bool     `json:"node_map_reused"`
	Train         int      `json:"train,omitempty"`
	Val           int      `json:"val,omitempty"`
	Test          int      `json:"test,omitempty"`
	TestRequested int      `json:"test_requested,omitempty"`
	Components    int      `json:"components,omitempty"`
	DurationMS    int64    `json:"duration_ms"`
}

func newRunView(s *pipeline.Summary) runView {
	view := runView{
		RunID:         s.RunID,
		Nodes:         s.Nodes,
		Edges:         s.Edges,
		OneSided:      s.OneSided,
		NodeMapReused: s.NodeMapReused,
		DurationMS:    s.Duration.Milliseconds(),
	}
	for _, stage := range s.Stages {
		view.Stages = append(view.Stages, string(stage))
	}
	if s.Masks != nil {
		view.Train, view.Val, view.Test = s.Masks.Masks.Counts()
		view.TestRequested = s.Masks.TestRequested
		view.Components = s.Masks.Components
	}
	return view
}

func runStages(cmd *cobra.Command, ctx *commandContext, stages ...pipeline.Stage) error {
	cfg, logger, err := ctx.setup()
	if err != nil {
		return err
	}
	summary, err := pipeline.New(cfg, logger).Run(cmd.Context(), stages...)
	if err != nil {
		return err
	}
	view := newRunView(summary)
	if ctx.jsonOutput() {
		return writeJSON(cmd, view)
	}

	rows := [][]string{
		{"Run", view.RunID},
		{"Stages", strings.Join(view.Stages, ", ")},
		{"Nodes", strconv.Itoa(view.Nodes)},
		{"Edges", strconv.Itoa(view.Edges)},
	}
	if view.OneSided > 0 {
		rows = append(rows, []string{"One-sided edges", strconv.Itoa(view.OneSided)})
	}
	for _, stage := range summary.Stages {
		if stage == pipeline.StageRelabel {
			rows = append(rows, []string{"Node map reused", yesNo(view.NodeMapReused)})
		}
	}
	if summary.Masks != nil {
		rows = append(rows,
			[]string{"Components", strconv.Itoa(view.Components)},
			[]string{"Train", strconv.Itoa(view.Train)},
			[]string{"Val", strconv.Itoa(view.Val)},
			[]string{"Test", fmt.Sprintf("%d of %d requested", view.Test, view.TestRequested)},
		)
	}
	rows = append(rows, []string{"Duration", summary.Duration.String()})
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
	return nil
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Build the graph, relabel it and write the masks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, ctx)
		},
	}
}

func newMasksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "masks",
		Short: "Write train/val/test masks from the relabeled graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, ctx, pipeline.StageMasks)
		},
	}
}

func newGraphCommand(ctx *commandContext) *cobra.Command {
	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Move graph artifacts",
	}

	graphCmd.AddCommand(&cobra.Command{
		Use:   "build",
		Short: "Build the move graph and write its adjacency list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, ctx, pipeline.StageBuild)
		},
	})
	graphCmd.AddCommand(&cobra.Command{
		Use:   "relabel",
		Short: "Relabel the built graph to consecutive integer ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, ctx, pipeline.StageRelabel)
		},
	})
	graphCmd.AddCommand(newGraphComponentsCommand(ctx))

	return graphCmd
}

type componentView struct {
	Index   int      `json:"index"`
	Size    int      `json:"size"`
	Members []string `json:"members"`
}

func newGraphComponentsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List connected components of the move graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, moves, err := ctx.loadMoves()
			if err != nil {
				return err
			}
			g, err := movegraph.Build(moves, movegraph.Options{Directed: cfg.Graph.Directed})
			if err != nil {
				return err
			}
			components := movegraph.Components(g)
			largest := movegraph.Largest(components)

			views := make([]componentView, len(components))
			rows := make([][]string, len(components))
			for i, nodes := range components {
				members := make([]string, len(nodes))
				for j, node := range nodes {
					members[j] = g.Label(node)
				}
				views[i] = componentView{Index: i, Size: len(nodes), Members: members}
				index := strconv.Itoa(i)
				if i == largest {
					index += "*"
				}
				rows[i] = []string{index, strconv.Itoa(len(nodes)), strings.Join(members, ", ")}
			}
			return printListing(cmd, ctx, listing{
				value:   views,
				empty:   "Move table is empty",
				headers: []string{"#", "Size", "Members"},
				rows:    rows,
				aligns:  []columnAlignment{alignRight, alignRight, alignLeft},
			})
		},
	}
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"datapipe/internal/datacheck"
	"datapipe/internal/movetable"
	"datapipe/internal/services"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Sanity checks on the move table",
	}

	checkCmd.AddCommand(newCheckIDsCommand(ctx))
	checkCmd.AddCommand(newCheckDuplicatesCommand(ctx))
	checkCmd.AddCommand(newCheckEmptyCommand(ctx))
	checkCmd.AddCommand(newCheckSymmetryCommand(ctx))

	return checkCmd
}

// checkFailed is returned after a report was printed so the process exits 1.
func checkFailed(check, detail string) error {
	return services.Wrap(services.ErrDataIntegrity, "check", check, detail, nil)
}

func newCheckIDsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ids",
		Short: "Verify ids form the range 1..N",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, moves, err := ctx.loadMoves()
			if err != nil {
				return err
			}
			valid := datacheck.ValidIDs(moves)
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, map[string]any{"rows": len(moves), "valid": valid}); err != nil {
					return err
				}
			} else {
				kind, msg := statusOK, fmt.Sprintf("1..%d", len(moves))
				if !valid {
					kind, msg = statusError, fmt.Sprintf("ids are not exactly 1..%d", len(moves))
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine("IDs", kind, msg, shouldColorize(cmd.OutOrStdout())))
			}
			if !valid {
				return checkFailed("ids", "move ids are not contiguous")
			}
			return nil
		},
	}
}

type moveView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func newCheckDuplicatesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates",
		Short: "List rows whose name occurs more than once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, moves, err := ctx.loadMoves()
			if err != nil {
				return err
			}
			dups := datacheck.Duplicated(moves)
			views := make([]moveView, len(dups))
			rows := make([][]string, len(dups))
			for i, m := range dups {
				views[i] = moveView{ID: m.ID, Name: m.Name}
				rows[i] = []string{strconv.Itoa(m.ID), m.Name}
			}
			if err := printListing(cmd, ctx, listing{
				value:   views,
				empty:   "No duplicate names",
				headers: []string{"ID", "Name"},
				rows:    rows,
				aligns:  []columnAlignment{alignRight},
			}); err != nil {
				return err
			}
			if len(dups) > 0 {
				return checkFailed("duplicates", fmt.Sprintf("%d rows share a name", len(dups)))
			}
			return nil
		},
	}
}

func newCheckEmptyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "empty <column>",
		Short: "List rows where a column is empty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, moves, err := ctx.loadMoves()
			if err != nil {
				return err
			}
			column := args[0]
			rowNumbers, err := datacheck.FindEmpty(moves, column)
			if err != nil {
				return err
			}
			views := make([]moveView, len(rowNumbers))
			rows := make([][]string, len(rowNumbers))
			for i, n := range rowNumbers {
				m := moves[n-1]
				views[i] = moveView{ID: m.ID, Name: m.Name}
				rows[i] = []string{strconv.Itoa(n), strconv.Itoa(m.ID), m.Name}
			}
			return printListing(cmd, ctx, listing{
				value:   views,
				empty:   fmt.Sprintf("No empty %s values", column),
				headers: []string{"Row", "ID", "Name"},
				rows:    rows,
				aligns:  []columnAlignment{alignRight, alignRight},
			})
		},
	}
}

type symmetryView struct {
	Asymmetric []pairView             `json:"asymmetric"`
	Unresolved []datacheck.Unresolved `json:"unresolved"`
}

type pairView struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	RowName string `json:"row_name"`
	ColName string `json:"col_name"`
}

func newCheckSymmetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "symmetry",
		Short: "Report prereq/subseq declarations that only one side makes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, moves, err := ctx.loadMoves()
			if err != nil {
				return err
			}
			matrix, unresolved, err := datacheck.Adjacency(moves)
			if err != nil {
				return err
			}
			pairs, err := datacheck.CheckSymmetry(matrix)
			if err != nil {
				return err
			}
			names := nameByID(moves)
			view := symmetryView{Unresolved: unresolved}
			rows := make([][]string, 0, len(pairs))
			for _, p := range pairs {
				pv := pairView{Row: p.Row, Col: p.Col, RowName: names[p.Row], ColName: names[p.Col]}
				view.Asymmetric = append(view.Asymmetric, pv)
				rows = append(rows, []string{strconv.Itoa(p.Row), pv.RowName, strconv.Itoa(p.Col), pv.ColName})
			}
			if err := printListing(cmd, ctx, listing{
				value:   view,
				empty:   "Adjacency is symmetric",
				headers: []string{"Row", "Move", "Col", "Move"},
				rows:    rows,
				aligns:  []columnAlignment{alignRight, alignLeft, alignRight},
			}); err != nil {
				return err
			}
			if len(unresolved) > 0 && !ctx.jsonOutput() {
				urows := make([][]string, len(unresolved))
				for i, u := range unresolved {
					urows[i] = []string{strconv.Itoa(u.MoveID), u.Column, u.Name}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Column", "Unresolved name"}, urows, []columnAlignment{alignRight}))
			}
			if len(pairs) > 0 {
				return checkFailed("symmetry", fmt.Sprintf("%d asymmetric pairs", len(pairs)))
			}
			return nil
		},
	}
}

func nameByID(moves []movetable.Move) map[int]string {
	names := make(map[int]string, len(moves))
	for _, m := range moves {
		names[m.ID] = m.Name
	}
	return names
}

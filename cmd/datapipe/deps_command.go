package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"datapipe/internal/deps"
	"datapipe/internal/preflight"
	"datapipe/internal/services"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external tools datapipe runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, statuses); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, s := range statuses {
					fmt.Fprintln(out, depStatusLine(s, colorize))
				}
			}
			if missing := deps.Missing(statuses); len(missing) > 0 {
				names := make([]string, len(missing))
				for i, s := range missing {
					names[i] = s.Name
				}
				return services.Wrap(services.ErrConfiguration, "deps", "check",
					"missing "+strings.Join(names, ", "), nil)
			}
			return nil
		},
	}
}

func depStatusLine(s deps.Status, colorize bool) string {
	if !s.Available {
		kind := statusError
		if s.Optional {
			kind = statusWarn
		}
		return renderStatusLine(s.Name, kind, s.Detail, colorize)
	}
	detail := s.Path
	if s.Version != "" {
		detail = fmt.Sprintf("%s (%s)", s.Version, s.Path)
	}
	if s.Detail != "" {
		return renderStatusLine(s.Name, statusWarn, detail+"; "+s.Detail, colorize)
	}
	return renderStatusLine(s.Name, statusOK, detail, colorize)
}

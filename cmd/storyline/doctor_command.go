package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyline/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, the database, and the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rc := requestContext(cmd)
			results := preflight.RunAll(rc, cfg)
			results = append(results, preflight.CheckAPI(rc, cfg.APIBaseURL(), cfg.Paths.APIToken))

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					state := okLabel(out, "ok")
					switch {
					case !r.Passed && r.Optional:
						state = "warn"
					case !r.Passed:
						state = failLabel(out, "fail")
					}
					rows = append(rows, []string{r.Name, state, dash(r.Detail)})
				}
				fmt.Fprintln(out, renderTable([]string{"Check", "State", "Detail"}, rows))
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(failed))
			}
			return nil
		},
	}
}

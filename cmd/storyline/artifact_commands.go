package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storyline/internal/artifact"
	"storyline/internal/pipeline"
)

// artifactEdit resolves the idea's chain, picks the artifact the edit targets,
// and applies fn to its id. Edits go straight to the store.
func (c *commandContext) artifactEdit(cmd *cobra.Command, arg, kind string, pick func(*artifact.Chain) int64, fn func(context.Context, *artifact.Store, int64) error) error {
	ideaID, err := parseIdeaID(arg)
	if err != nil {
		return err
	}
	return c.withStore(cmd, func(rc context.Context, store *artifact.Store) error {
		chain, err := store.Chain(rc, ideaID)
		if err != nil {
			return pipeline.FromStore(err)
		}
		if chain == nil {
			return pipeline.NotFound(fmt.Sprintf("idea %d not found", ideaID))
		}
		id := pick(chain)
		if id == 0 {
			return pipeline.NotFound(fmt.Sprintf("idea %d has no %s yet", ideaID, kind))
		}
		if err := fn(rc, store, id); err != nil {
			return pipeline.FromStore(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %d for idea %d\n", kind, id, ideaID)
		return nil
	})
}

func scriptOf(c *artifact.Chain) int64 {
	if c.Script == nil {
		return 0
	}
	return c.Script.ID
}

func productionOf(c *artifact.Chain) int64 {
	if c.Production == nil {
		return 0
	}
	return c.Production.ID
}

func socialPostOf(c *artifact.Chain) int64 {
	if c.SocialPost == nil {
		return 0
	}
	return c.SocialPost.ID
}

func parseRef(arg string) (int64, error) {
	ref, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || ref < 0 {
		return 0, pipeline.InvalidInput(fmt.Sprintf("invalid reference %q", arg))
	}
	return ref, nil
}

func parseTimeFlag(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "now" {
		now := time.Now().UTC()
		return &now, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, pipeline.InvalidInput(fmt.Sprintf("time %q must be RFC3339", value))
	}
	return &ts, nil
}

func newScriptCommand(ctx *commandContext) *cobra.Command {
	scriptCmd := &cobra.Command{
		Use:   "script",
		Short: "Edit the script of an idea",
	}

	scriptCmd.AddCommand(&cobra.Command{
		Use:   "director <idea-id> <director-ref>",
		Short: "Assign the director (0 clears)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[1])
			if err != nil {
				return err
			}
			return ctx.artifactEdit(cmd, args[0], "script", scriptOf, func(rc context.Context, s *artifact.Store, id int64) error {
				return s.AssignDirector(rc, id, ref)
			})
		},
	})

	scriptCmd.AddCommand(&cobra.Command{
		Use:   "notes <idea-id> <notes>",
		Short: "Replace the writer notes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.artifactEdit(cmd, args[0], "script", scriptOf, func(rc context.Context, s *artifact.Store, id int64) error {
				return s.UpdateWriterNotes(rc, id, args[1])
			})
		},
	})

	return scriptCmd
}

func newProductionCommand(ctx *commandContext) *cobra.Command {
	productionCmd := &cobra.Command{
		Use:   "production",
		Short: "Edit the production of an idea",
	}

	productionCmd.AddCommand(&cobra.Command{
		Use:   "editor <idea-id> <editor-ref>",
		Short: "Assign the editor (0 clears)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[1])
			if err != nil {
				return err
			}
			return ctx.artifactEdit(cmd, args[0], "production", productionOf, func(rc context.Context, s *artifact.Store, id int64) error {
				return s.AssignEditor(rc, id, ref)
			})
		},
	})

	var at string
	var clearCompletion bool
	complete := &cobra.Command{
		Use:   "complete <idea-id>",
		Short: "Mark the production complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ts *time.Time
			if !clearCompletion {
				parsed, err := parseTimeFlag(at)
				if err != nil {
					return err
				}
				ts = parsed
			}
			return ctx.artifactEdit(cmd, args[0], "production", productionOf, func(rc context.Context, s *artifact.Store, id int64) error {
				return s.CompleteProduction(rc, id, ts)
			})
		},
	}
	complete.Flags().StringVar(&at, "at", "", "Completion time (RFC3339, default now)")
	complete.Flags().BoolVar(&clearCompletion, "clear", false, "Clear the completion instead")
	productionCmd.AddCommand(complete)

	return productionCmd
}

func newSocialCommand(ctx *commandContext) *cobra.Command {
	socialCmd := &cobra.Command{
		Use:   "social",
		Short: "Edit the social post of an idea",
	}

	var revoke bool
	approve := &cobra.Command{
		Use:   "approve <idea-id>",
		Short: "Approve the social post for publishing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.artifactEdit(cmd, args[0], "social post", socialPostOf, func(rc context.Context, s *artifact.Store, id int64) error {
				return s.SetSocialApproval(rc, id, !revoke)
			})
		},
	}
	approve.Flags().BoolVar(&revoke, "revoke", false, "Withdraw a previous approval")
	socialCmd.AddCommand(approve)

	var clearSchedule bool
	schedule := &cobra.Command{
		Use:   "schedule <idea-id> [time]",
		Short: "Schedule the social post (RFC3339, default now)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ts *time.Time
			if !clearSchedule {
				value := ""
				if len(args) > 1 {
					value = args[1]
				}
				parsed, err := parseTimeFlag(value)
				if err != nil {
					return err
				}
				ts = parsed
			}
			return ctx.artifactEdit(cmd, args[0], "social post", socialPostOf, func(rc context.Context, s *artifact.Store, id int64) error {
				return s.ScheduleSocialPost(rc, id, ts)
			})
		},
	}
	schedule.Flags().BoolVar(&clearSchedule, "clear", false, "Revert the post to draft")
	socialCmd.AddCommand(schedule)

	socialCmd.AddCommand(&cobra.Command{
		Use:   "caption <idea-id> <caption>",
		Short: "Replace the caption",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.artifactEdit(cmd, args[0], "social post", socialPostOf, func(rc context.Context, s *artifact.Store, id int64) error {
				return s.UpdateCaption(rc, id, args[1])
			})
		},
	})

	return socialCmd
}

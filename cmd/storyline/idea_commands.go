package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storyline/internal/api"
	"storyline/internal/artifact"
	"storyline/internal/pipeline"
	"storyline/internal/pipelineaccess"
)

func newIdeaCommand(ctx *commandContext) *cobra.Command {
	ideaCmd := &cobra.Command{
		Use:   "idea",
		Short: "Submit ideas and move them through the pipeline",
	}

	ideaCmd.AddCommand(newIdeaSubmitCommand(ctx))
	ideaCmd.AddCommand(newIdeaListCommand(ctx))
	ideaCmd.AddCommand(newIdeaShowCommand(ctx))
	ideaCmd.AddCommand(newIdeaValidateCommand(ctx))
	ideaCmd.AddCommand(newIdeaAdvanceCommand(ctx))
	ideaCmd.AddCommand(newIdeaHistoryCommand(ctx))
	ideaCmd.AddCommand(newIdeaEditCommand(ctx))

	return ideaCmd
}

func parseIdeaID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid idea id %q", arg)
	}
	return id, nil
}

func newIdeaSubmitCommand(ctx *commandContext) *cobra.Command {
	var req api.SubmitIdeaRequest

	cmd := &cobra.Command{
		Use:   "submit <title>",
		Short: "Create a new idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Title = args[0]
			return ctx.withAccess(cmd, func(rc context.Context, access pipelineaccess.Access) error {
				resp, err := access.Submit(rc, req)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created idea %d (%s)\n", resp.Idea.ID, resp.Idea.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Description, "description", "", "Longer description")
	cmd.Flags().Int64Var(&req.ContributorRef, "contributor", 0, "Contributor reference")
	cmd.Flags().Int64Var(&req.ScriptWriterRef, "writer", 0, "Script writer reference")
	cmd.Flags().StringVar(&req.Priority, "priority", "", "Priority (low, medium, high, urgent)")
	cmd.Flags().StringVar(&req.Status, "status", "", "Free-form status label")
	return cmd
}

func newIdeaListCommand(ctx *commandContext) *cobra.Command {
	var q api.ListQuery

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ideas with their derived stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(rc context.Context, access pipelineaccess.Access) error {
				resp, err := access.List(rc, q)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Items) == 0 {
					fmt.Fprintln(out, "No ideas found")
					return nil
				}
				rows := make([][]string, 0, len(resp.Items))
				for _, item := range resp.Items {
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						item.Title,
						stageLabel(out, item.Stage),
						item.Priority,
						dash(item.Status),
						dash(item.UpdatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Stage", "Priority", "Status", "Updated"},
					rows, 0,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&q.Stage, "stage", "", "Only ideas currently at this stage")
	cmd.Flags().StringVar(&q.Priority, "priority", "", "Only ideas with this priority")
	cmd.Flags().StringVar(&q.Status, "status", "", "Only ideas with this status label")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "Maximum number of ideas")
	return cmd
}

func newIdeaShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an idea and its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIdeaID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(rc context.Context, access pipelineaccess.Access) error {
				detail, err := access.Detail(rc, id)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, detail)
				}
				printDetail(cmd, detail)
				return nil
			})
		},
	}
}

func printDetail(cmd *cobra.Command, d *api.DetailResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Idea %d: %s\n", d.Idea.ID, d.Idea.Title)
	fmt.Fprintf(out, "  Stage:           %s\n", stageLabel(out, d.Stage))
	fmt.Fprintf(out, "  Can move:        %s\n", yesNo(d.CanMoveForward))
	fmt.Fprintf(out, "  Priority:        %s\n", d.Idea.Priority)
	fmt.Fprintf(out, "  Status:          %s\n", dash(d.Idea.Status))
	fmt.Fprintf(out, "  Contributor:     %s\n", refLabel(d.Idea.ContributorRef))
	fmt.Fprintf(out, "  Script writer:   %s\n", refLabel(d.Idea.ScriptWriterRef))
	if d.Script != nil {
		fmt.Fprintf(out, "Script %d\n", d.Script.ID)
		fmt.Fprintf(out, "  Director:        %s\n", refLabel(d.Script.DirectorRef))
		fmt.Fprintf(out, "  Writer notes:    %s\n", dash(d.Script.WriterNotes))
	}
	if d.Production != nil {
		fmt.Fprintf(out, "Production %d\n", d.Production.ID)
		fmt.Fprintf(out, "  Editor:          %s\n", refLabel(d.Production.EditorRef))
		fmt.Fprintf(out, "  Completed:       %s\n", dash(d.Production.CompletedAt))
	}
	if d.SocialPost != nil {
		fmt.Fprintf(out, "Social post %d\n", d.SocialPost.ID)
		fmt.Fprintf(out, "  Status:          %s\n", d.SocialPost.Status)
		fmt.Fprintf(out, "  Approved:        %s\n", yesNo(d.SocialPost.Approved))
		fmt.Fprintf(out, "  Scheduled for:   %s\n", dash(d.SocialPost.ScheduledFor))
		fmt.Fprintf(out, "  Published:       %s\n", dash(d.SocialPost.PublishedAt))
	}
}

func refLabel(ref int64) string {
	if ref == 0 {
		return "-"
	}
	return strconv.FormatInt(ref, 10)
}

func newIdeaValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <id>",
		Short: "Report whether an idea can move forward, without changing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIdeaID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(rc context.Context, access pipelineaccess.Access) error {
				report, err := access.Validation(rc, id)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}
				out := cmd.OutOrStdout()
				switch {
				case !report.CanMoveForward:
					fmt.Fprintf(out, "Idea %d is %s; nothing further to do\n", report.IdeaID, stageLabel(out, report.Stage))
				case report.Ready:
					fmt.Fprintf(out, "Idea %d at %s is %s\n", report.IdeaID, stageLabel(out, report.Stage), okLabel(out, "ready to move forward"))
				default:
					fmt.Fprintf(out, "Idea %d at %s is %s\n", report.IdeaID, stageLabel(out, report.Stage), failLabel(out, "blocked"))
					rows := make([][]string, 0, len(report.ValidationErrors))
					for _, v := range report.ValidationErrors {
						rows = append(rows, []string{v.Code, v.Field, v.Message})
					}
					fmt.Fprintln(out, renderTable([]string{"Check", "Field", "Message"}, rows))
				}
				return nil
			})
		},
	}
}

func newIdeaAdvanceCommand(ctx *commandContext) *cobra.Command {
	var note string
	var from string

	cmd := &cobra.Command{
		Use:   "advance <id>",
		Short: "Move an idea forward one stage",
		Long: "Move an idea forward one stage. The command sends the stage it expects the idea\n" +
			"to be at, so repeating it after a success reports ALREADY_EXISTS instead of\n" +
			"advancing twice. Use --from to pin that stage explicitly.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIdeaID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(rc context.Context, access pipelineaccess.Access) error {
				expected := strings.TrimSpace(from)
				if expected == "" {
					detail, err := access.Detail(rc, id)
					if err != nil {
						return err
					}
					expected = detail.Stage
				} else if _, err := pipeline.ParseStage(expected); err != nil {
					return err
				}

				resp, err := access.MoveForward(rc, id, api.MoveForwardRequest{Note: note, ExpectedStage: expected})
				if err != nil {
					return describeError(err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Idea %d moved %s -> %s\n", id, stageLabel(out, resp.FromStage), stageLabel(out, resp.ToStage))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Note recorded on the new artifact and in history")
	cmd.Flags().StringVar(&from, "from", "", "Stage the idea is expected to be at")
	return cmd
}

func newIdeaHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the transition history of an idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIdeaID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(rc context.Context, access pipelineaccess.Access) error {
				history, err := access.History(rc, id)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, history)
				}
				out := cmd.OutOrStdout()
				if len(history.Transitions) == 0 {
					fmt.Fprintf(out, "Idea %d has not moved yet\n", id)
					return nil
				}
				rows := make([][]string, 0, len(history.Transitions))
				for _, tr := range history.Transitions {
					rows = append(rows, []string{
						dash(tr.CreatedAt),
						stageLabel(out, tr.FromStage),
						stageLabel(out, tr.ToStage),
						strconv.FormatInt(tr.ArtifactID, 10),
						dash(tr.Note),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"When", "From", "To", "Artifact", "Note"},
					rows, 3,
				))
				return nil
			})
		},
	}
}

func newIdeaEditCommand(ctx *commandContext) *cobra.Command {
	var (
		title       string
		description string
		contributor int64
		writer      int64
		priority    string
		status      string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit idea fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIdeaID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			var update artifact.IdeaUpdate
			if flags.Changed("title") {
				update.Title = &title
			}
			if flags.Changed("description") {
				update.Description = &description
			}
			if flags.Changed("contributor") {
				update.ContributorRef = &contributor
			}
			if flags.Changed("writer") {
				update.ScriptWriterRef = &writer
			}
			if flags.Changed("priority") {
				p, err := artifact.ParsePriority(priority)
				if err != nil {
					return err
				}
				update.Priority = &p
			}
			if flags.Changed("status") {
				update.Status = &status
			}

			return ctx.withStore(cmd, func(rc context.Context, store *artifact.Store) error {
				idea, err := store.UpdateIdea(rc, id, update)
				if err != nil {
					return pipeline.FromStore(err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.IdeaResponse{Idea: api.FromIdea(idea)})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated idea %d\n", idea.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().Int64Var(&contributor, "contributor", 0, "Contributor reference (0 clears)")
	cmd.Flags().Int64Var(&writer, "writer", 0, "Script writer reference (0 clears)")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority (low, medium, high, urgent)")
	cmd.Flags().StringVar(&status, "status", "", "Free-form status label")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"storyline/internal/pipeline"
)

// writeJSON prints v for --json output. Titles and notes are written without
// HTML escaping.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var stageColors = map[pipeline.Stage]color.Attribute{
	pipeline.StageIdea:       color.FgCyan,
	pipeline.StageScript:     color.FgBlue,
	pipeline.StageProduction: color.FgMagenta,
	pipeline.StageSocial:     color.FgYellow,
	pipeline.StagePublished:  color.FgGreen,
}

// stageLabel renders a stage name, coloured when out is a terminal.
func stageLabel(out io.Writer, stage string) string {
	attr, ok := stageColors[pipeline.Stage(stage)]
	if !ok || !shouldColorize(out) {
		return stage
	}
	c := color.New(attr, color.Bold)
	c.EnableColor()
	return c.Sprint(stage)
}

func okLabel(out io.Writer, value string) string {
	return paint(out, color.FgGreen, value)
}

func failLabel(out io.Writer, value string) string {
	return paint(out, color.FgRed, value)
}

func paint(out io.Writer, attr color.Attribute, value string) string {
	if !shouldColorize(out) {
		return value
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(value)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// describeError expands a pipeline error into one line per violation.
func describeError(err error) error {
	pe := pipeline.AsError(err)
	if pe == nil || len(pe.Violations) == 0 {
		return err
	}
	var b strings.Builder
	for _, v := range pe.Violations {
		fmt.Fprintf(&b, "\n  - %s (%s): %s", v.Code, v.Field, v.Message)
	}
	return fmt.Errorf("%w%s", err, b.String())
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

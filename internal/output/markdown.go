package output

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"golang.org/x/term"
)

const (
	defaultMarkdownWidth = 80
	minMarkdownWidth     = 20
)

// TerminalWidth returns the current terminal width or a fallback when unavailable.
func TerminalWidth(fallback int) int {
	if fallback <= 0 {
		fallback = defaultMarkdownWidth
	}
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if parsed, err := strconv.Atoi(cols); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// RenderMarkdown renders markdown using Glamour with terminal-aware wrapping.
func RenderMarkdown(text string) (string, error) {
	return RenderMarkdownWithWidth(text, TerminalWidth(defaultMarkdownWidth))
}

// RenderMarkdownWithWidth renders markdown using Glamour with explicit wrapping.
func RenderMarkdownWithWidth(text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if width < minMarkdownWidth {
		width = minMarkdownWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	rendered, err := renderer.Render(text)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(rendered, "\n"), nil
}

// JobMarkdown describes a job's task schema as a markdown document.
func JobMarkdown(job models.Job) string {
	var sb strings.Builder
	name := job.Name
	if name == "" {
		name = job.ID
	}
	fmt.Fprintf(&sb, "# %s\n\n", name)
	fmt.Fprintf(&sb, "Job `%s`", job.ID)
	if job.SurveyID != "" {
		fmt.Fprintf(&sb, " in survey `%s`", job.SurveyID)
	}
	sb.WriteString("\n\n| # | Task | Type | Required |\n|---|---|---|---|\n")
	for _, task := range job.OrderedTasks() {
		label := task.Label
		if label == "" {
			label = task.ID
		}
		required := ""
		if task.Required {
			required = "yes"
		}
		fmt.Fprintf(&sb, "| %d | %s (`%s`) | %s | %s |\n", task.Index, label, task.ID, taskTypeLabel(task), required)
	}

	for _, task := range job.OrderedTasks() {
		if len(task.Options) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n## Options for `%s`\n\n", task.ID)
		for _, o := range task.Options {
			fmt.Fprintf(&sb, "- `%s` %s\n", o.ID, o.Label)
		}
	}
	return sb.String()
}

func taskTypeLabel(task models.Task) string {
	if task.Type == models.TaskTypeMultipleChoice && task.Cardinality != "" {
		return fmt.Sprintf("%s (%s)", task.Type, task.Cardinality)
	}
	return string(task.Type)
}

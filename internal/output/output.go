// Package output provides styled terminal output helpers (success, error,
// warning, mutation and submission formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	typeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	statusStyles = map[models.SyncStatus]lipgloss.Style{
		models.SyncPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.SyncInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.SyncFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.SyncCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}
)

var out io.Writer = os.Stdout

// SetWriter redirects all output, returning a func that restores the
// previous writer.
func SetWriter(w io.Writer) (restore func()) {
	prev := out
	out = w
	return func() { out = prev }
}

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Fprintln(out, errorStyle.Render("ERROR: "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Fprintln(out, warningStyle.Render("Warning: "+fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Fprintln(out, fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// FormatSyncStatus formats a sync status with color
func FormatSyncStatus(s models.SyncStatus) string {
	style, ok := statusStyles[s]
	if !ok {
		return fmt.Sprintf("[%s]", s)
	}
	return style.Render(fmt.Sprintf("[%s]", s))
}

// FormatMutationType formats a mutation type
func FormatMutationType(t models.MutationType) string {
	return typeStyle.Render(string(t))
}

// FormatPoint renders a coordinate as "lat,lng"
func FormatPoint(p models.Point) string {
	return fmt.Sprintf("%.6f,%.6f", p.Latitude, p.Longitude)
}

// FormatMutationShort returns a one-line mutation summary
func FormatMutationShort(m models.LOIMutation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s loi=%s", m.ID, FormatSyncStatus(m.SyncStatus), FormatMutationType(m.Type), m.LOIID)
	if m.Location.Valid {
		fmt.Fprintf(&sb, " at=%s", FormatPoint(m.Location.Point))
	}
	if n := len(m.PolygonVertices); n > 0 {
		fmt.Fprintf(&sb, " vertices=%d", n)
	}
	if m.RetryCount > 0 {
		sb.WriteString(subtleStyle.Render(fmt.Sprintf(" retries=%d", m.RetryCount)))
	}
	if m.LastError != "" {
		sb.WriteString(" " + errorStyle.Render(m.LastError))
	}
	sb.WriteString(subtleStyle.Render(" " + FormatTimeAgo(m.ClientTimestamp)))
	return sb.String()
}

// FormatSubmissionShort returns a one-line submission summary
func FormatSubmissionShort(s models.Submission) string {
	return fmt.Sprintf("%s job=%s loi=%s responses=%d %s",
		s.ID, s.JobID, s.LOIID, s.Responses.Len(),
		subtleStyle.Render(FormatTimeAgo(s.Created.ClientTimestamp)))
}

// FormatSubmissionLong renders a submission with its responses in job order.
// Responses for tasks the job does not list are appended at the end.
func FormatSubmissionLong(s models.Submission, job models.Job) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Submission "+s.ID) + "\n")
	fmt.Fprintf(&sb, "Job: %s (%s)\n", job.Name, s.JobID)
	fmt.Fprintf(&sb, "Survey: %s  LOI: %s\n", s.SurveyID, s.LOIID)
	fmt.Fprintf(&sb, "Created: %s by %s\n", s.Created.ClientTimestamp.Format(time.RFC3339), userLabel(s.Created.User))
	fmt.Fprintf(&sb, "Modified: %s by %s\n", s.LastModified.ClientTimestamp.Format(time.RFC3339), userLabel(s.LastModified.User))

	sb.WriteString(SectionHeader("responses"))
	listed := make(map[string]bool)
	for _, task := range job.OrderedTasks() {
		listed[task.ID] = true
		label := task.Label
		if label == "" {
			label = task.ID
		}
		r, ok := s.Responses.Response(task.ID)
		switch {
		case ok && r != nil:
			fmt.Fprintf(&sb, "  %s: %s\n", label, r.String())
		case s.Responses.Has(task.ID):
			fmt.Fprintf(&sb, "  %s: %s\n", label, subtleStyle.Render("(cleared)"))
		default:
			fmt.Fprintf(&sb, "  %s: %s\n", label, subtleStyle.Render("-"))
		}
	}
	for _, id := range s.Responses.TaskIDs() {
		if listed[id] {
			continue
		}
		if r, ok := s.Responses.Response(id); ok && r != nil {
			fmt.Fprintf(&sb, "  %s: %s\n", id, r.String())
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func userLabel(u models.User) string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Email != "":
		return u.Email
	case u.ID != "":
		return u.ID
	}
	return "unknown"
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nRESPONSES:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// BulletList formats items as a bulleted list with optional indentation
func BulletList(items []string, indent int) []string {
	prefix := strings.Repeat(" ", indent)
	result := make([]string, len(items))
	for i, item := range items {
		result[i] = prefix + "- " + item
	}
	return result
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matsen/spacebio/internal/publication"
	"github.com/matsen/spacebio/internal/semantic"
)

// Constants for output formatting.
const (
	DefaultListLimit = 50 // Default limit for list

	// Title truncation lengths by context
	SearchTitleMaxLen = 70 // Used in search result summaries
	ListTitleMaxLen   = 60 // Used in list command output
	DetailTitleMaxLen = 70 // Used in detail headers

	// Text wrapping widths
	TextWrapWidth       = 60 // Standard text wrap width
	DetailTextWrapWidth = 68 // Wider wrap for abstracts and summaries
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError writes an error message to stderr and returns the exit code.
func outputError(code int, format string, args ...interface{}) int {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	return code
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PublicationResult is a publication in semantic and similar results.
type PublicationResult struct {
	ID         int      `json:"index"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Journal    string   `json:"journal,omitempty"`
	Date       string   `json:"publication_date,omitempty"`
	Similarity float32  `json:"similarity"`
	Summary    string   `json:"summary,omitempty"`
}

// buildResults converts search hits to PublicationResult values.
// Set includeSummary to true to populate the Summary field.
func buildResults(hits []semantic.Hit, includeSummary bool) []PublicationResult {
	results := make([]PublicationResult, 0, len(hits))
	for _, h := range hits {
		r := PublicationResult{
			ID:         h.Publication.ID,
			Title:      h.Publication.Title,
			Authors:    h.Publication.Authors,
			Journal:    h.Publication.Journal,
			Date:       h.Publication.PublicationDate,
			Similarity: h.Score,
		}
		if includeSummary {
			r.Summary = h.Publication.Summary
		}
		results = append(results, r)
	}
	return results
}

// printResultsHuman prints scored results in human-readable format.
func printResultsHuman(results []PublicationResult) {
	for i, r := range results {
		fmt.Printf("%d. [%.2f] #%d\n", i+1, r.Similarity, r.ID)
		fmt.Printf("   %s\n", truncateString(r.Title, SearchTitleMaxLen))
		fmt.Printf("   %s%s\n\n", publication.FormatAuthorsShort(r.Authors, 3), yearSuffix(r.Date))
	}
}

// printPublicationLine prints a one-line publication summary.
func printPublicationLine(p publication.Publication) {
	fmt.Printf("  %-6d %s\n", p.ID, truncateString(p.Title, ListTitleMaxLen))
}

// yearSuffix renders " (2021)" from an ISO date, or "" when no year is known.
func yearSuffix(date string) string {
	if len(date) < 4 {
		return ""
	}
	return " (" + date[:4] + ")"
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// wrapText wraps text to the specified width with indentation on subsequent lines.
func wrapText(text string, width int, indent string) string {
	if len(text) <= width {
		return text
	}

	var lines []string
	words := strings.Fields(text)
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n"+indent)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// formatBytes formats bytes in a human-readable way.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// progressBar renders a 30-column progress bar.
func progressBar(current, total int) string {
	if total == 0 {
		return ""
	}
	const barWidth = 30
	filled := barWidth * current / total
	var b strings.Builder
	for i := 0; i < barWidth; i++ {
		switch {
		case i < filled:
			b.WriteByte('=')
		case i == filled:
			b.WriteByte('>')
		default:
			b.WriteByte(' ')
		}
	}
	pct := float64(current) / float64(total) * 100
	return fmt.Sprintf("[%s] %d/%d (%.0f%%)", b.String(), current, total, pct)
}

// printProgress prints a progress bar to stderr.
func printProgress(current, total int) {
	if total == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\r%s", progressBar(current, total))
}

package publication

import "strings"

// FormatAuthorsShort returns up to maxCount authors followed by "et al." when truncated.
func FormatAuthorsShort(authors []string, maxCount int) string {
	if len(authors) == 0 {
		return ""
	}
	if maxCount <= 0 || len(authors) <= maxCount {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:maxCount], ", ") + ", et al."
}

// SearchableText concatenates the fields keyword search matches against.
func (p *Publication) SearchableText() string {
	parts := []string{p.Title, p.Abstract, p.Summary, p.Impact, p.Theme, p.Journal}
	parts = append(parts, p.Authors...)
	parts = append(parts, p.Keywords...)
	return strings.Join(parts, "\n")
}

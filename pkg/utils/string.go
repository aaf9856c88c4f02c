package utils

// Truncate shortens s to maxLen bytes, marking the cut with an ellipsis.
// Keeps logged upstream payloads from flooding the log.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

package app

import "strings"

const maxTracedQueryLength = 512

// formatDBQueryForTrace puts a statement on one line for the db.statement attribute.
func formatDBQueryForTrace(query string) string {
	normalized := strings.Join(strings.Fields(query), " ")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}
	return normalized[:maxTracedQueryLength] + "..."
}

package records

// Table describes one table reachable through the records gate.
// Columns is the allowlist for caller-supplied filters and payload fields;
// id and user_id are always present and always controlled by the gate itself.
type Table struct {
	Columns map[string]struct{}
}

// Schema is the closed set of tables the gate may touch.
type Schema map[string]Table

func cols(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// DefaultSchema lists the user-owned tables and their writable columns.
func DefaultSchema() Schema {
	return Schema{
		"user_content": {Columns: cols(
			"content_text", "source_type", "source_url", "is_active", "metadata",
		)},
		"user_preferences": {Columns: cols(
			"theme", "default_threshold", "default_match_count", "email_digest",
		)},
		"search_history": {Columns: cols(
			"query_text", "result_count", "execution_time_ms",
		)},
	}
}

package app

import (
	"net/url"
	"strings"
)

const preparedBinaryResultParam = "disable_prepared_binary_result"

// normalizeDBURL turns off binary prepared results unless the URL already says otherwise.
// Anything that is not a postgres:// URL is passed through untouched.
func normalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	parsed, ok := parsePostgresURL(raw)
	if !ok || !disablePreparedBinaryResult {
		return raw
	}

	query := parsed.Query()
	if query.Has(preparedBinaryResultParam) {
		return raw
	}
	query.Set(preparedBinaryResultParam, "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func dbNameFromURL(raw string) string {
	parsed, ok := parsePostgresURL(raw)
	if !ok {
		return ""
	}
	return strings.Trim(parsed.Path, "/ ")
}

func parsePostgresURL(raw string) (*url.URL, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, false
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return nil, false
	}
	return parsed, true
}

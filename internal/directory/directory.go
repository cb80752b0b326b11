// Package directory looks up people in a team roster spreadsheet. The sheet's
// first row is treated as headers; the Slack id column and the name columns
// are discovered by fuzzy header matching so the roster's exact wording does
// not matter.
package directory

import (
	"context"
	"strings"

	"github.com/quailyquaily/slackmate/internal/slackid"
)

// Record is one roster row keyed by its header names.
type Record map[string]string

// Directory resolves a canonical Slack user id to a roster row.
type Directory interface {
	Lookup(ctx context.Context, userID string) (Record, bool, error)
}

// slackIDFallbacks are accepted as-is (after header normalization) when no
// header fuzzy-matches. Rosters headed with a bare "Slack" column land here.
var slackIDFallbacks = []string{"slackid", "slack", "idslack"}

// slackIDColumn returns the header naming the Slack id column. A header
// matches when its lowercase alphanumeric form contains both "slack" and
// "id", so "Slack ID", "slack_id" and "Slack Member ID" all qualify; failing
// that, a fixed list of exact spellings is tried.
func slackIDColumn(headers []string) (string, bool) {
	for _, h := range headers {
		n := normalizeHeader(h)
		if strings.Contains(n, "slack") && strings.Contains(n, "id") {
			return h, true
		}
	}
	for _, want := range slackIDFallbacks {
		for _, h := range headers {
			if normalizeHeader(h) == want {
				return h, true
			}
		}
	}
	return "", false
}

func normalizeHeader(header string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(header) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchRecord scans rows for the one whose Slack id cell normalizes to
// userID. Both sides go through identifier normalization so decorated cell
// values still match.
func MatchRecord(headers []string, rows []Record, userID string) (Record, bool) {
	column, ok := slackIDColumn(headers)
	if !ok {
		return nil, false
	}
	want := slackid.Normalize(userID)
	if want == "" {
		return nil, false
	}
	for _, row := range rows {
		if slackid.Normalize(row[column]) == want {
			return row, true
		}
	}
	return nil, false
}

// preferredNameColumns is ordered: an earlier match wins.
var preferredNameColumns = []string{"namepref", "namepreferred", "preferredname", "namefirst", "firstname"}

// PreferredName extracts the person's name from a roster row, preferring an
// explicit "preferred" name column over a first-name column.
func PreferredName(rec Record) string {
	if len(rec) == 0 {
		return ""
	}
	for _, want := range preferredNameColumns {
		for header, value := range rec {
			if normalizeHeader(header) != want {
				continue
			}
			if v := strings.TrimSpace(value); v != "" {
				return v
			}
		}
	}
	return ""
}

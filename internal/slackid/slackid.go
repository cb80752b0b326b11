// Package slackid canonicalizes the many encodings a Slack user id arrives in.
// The canonical form (U...) is the join key for every cache, dedup set, and
// store in the bot, so anything that keys on a user must normalize first.
package slackid

import "strings"

// Normalize returns the canonical UXXXXXXXXX form of a raw user identifier.
// It is total (empty input yields "") and idempotent. Handled encodings, in
// order: mention markup <@U...|alias> or <@U...>, URLs whose last path segment
// is the id, WORKSPACE-ID composites like T05NRU10WAW-U05SSCWHSV7, and any
// residual prefix before the first U sigil.
func Normalize(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}

	if strings.HasPrefix(v, "<@") && strings.HasSuffix(v, ">") {
		v = v[2 : len(v)-1]
		if i := strings.IndexByte(v, '|'); i >= 0 {
			v = v[:i]
		}
	}

	if strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "http://") {
		v = strings.TrimRight(v, "/")
		if i := strings.LastIndexByte(v, '/'); i >= 0 {
			v = v[i+1:]
		}
	}

	if i := strings.IndexByte(v, '-'); i >= 0 {
		if right := v[i+1:]; strings.HasPrefix(right, "U") {
			v = right
		}
	}

	if i := strings.IndexByte(v, 'U'); i > 0 {
		v = v[i:]
	}

	return strings.TrimSpace(v)
}

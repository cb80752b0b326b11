// Package mrkdwn rewrites model output into Slack's mrkdwn dialect.
package mrkdwn

import "strings"

// Normalize converts Markdown bold markers into mrkdwn bold markers. Models
// emit **bold** while Slack renders *bold*; the double marker would otherwise
// show up literally in the channel.
func Normalize(text string) string {
	return strings.ReplaceAll(text, "**", "*")
}

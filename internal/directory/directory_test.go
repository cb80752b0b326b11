package directory

import "testing"

func rosterHeaders() []string {
	return []string{"Name (pref)", "Name (first)", "Email", "Slack ID"}
}

func rosterRows() []Record {
	return []Record{
		{"Name (pref)": "Dana", "Name (first)": "Danielle", "Email": "dana@example.com", "Slack ID": "U05SSCWHSV7"},
		{"Name (pref)": "", "Name (first)": "Lee", "Email": "lee@example.com", "Slack ID": "<@U0AAAAAA1|lee>"},
	}
}

func TestSlackIDColumnFuzzyMatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		headers []string
		want    string
		ok      bool
	}{
		{name: "exact", headers: []string{"Slack ID"}, want: "Slack ID", ok: true},
		{name: "underscore", headers: []string{"slack_id"}, want: "slack_id", ok: true},
		{name: "member id", headers: []string{"Slack Member ID"}, want: "Slack Member ID", ok: true},
		{name: "id alone", headers: []string{"ID", "Name"}, ok: false},
		{name: "bare slack fallback", headers: []string{"Name", "Slack"}, want: "Slack", ok: true},
		{name: "slack with suffix", headers: []string{"Slack Handle"}, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := slackIDColumn(tc.headers)
			if ok != tc.ok {
				t.Fatalf("slackIDColumn() ok = %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("slackIDColumn() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMatchRecord(t *testing.T) {
	t.Parallel()

	rec, ok := MatchRecord(rosterHeaders(), rosterRows(), "U05SSCWHSV7")
	if !ok {
		t.Fatalf("MatchRecord() ok = false, want true")
	}
	if rec["Email"] != "dana@example.com" {
		t.Fatalf("MatchRecord() email = %q", rec["Email"])
	}
}

func TestMatchRecordNormalizesBothSides(t *testing.T) {
	t.Parallel()

	rec, ok := MatchRecord(rosterHeaders(), rosterRows(), "<@U0AAAAAA1>")
	if !ok {
		t.Fatalf("MatchRecord() ok = false, want true")
	}
	if rec["Name (first)"] != "Lee" {
		t.Fatalf("MatchRecord() first name = %q", rec["Name (first)"])
	}
}

func TestMatchRecordBareSlackHeader(t *testing.T) {
	t.Parallel()

	headers := []string{"Slack", "Name (pref)"}
	rows := []Record{{"Slack": "U12345", "Name (pref)": "Dana"}}
	rec, ok := MatchRecord(headers, rows, "U12345")
	if !ok {
		t.Fatalf("MatchRecord() ok = false with bare %q header, want true", "Slack")
	}
	if rec["Name (pref)"] != "Dana" {
		t.Fatalf("MatchRecord() preferred name = %q", rec["Name (pref)"])
	}
}

func TestMatchRecordNoSlackColumn(t *testing.T) {
	t.Parallel()

	if _, ok := MatchRecord([]string{"Name", "Email"}, rosterRows(), "U05SSCWHSV7"); ok {
		t.Fatalf("MatchRecord() ok = true without a slack id column")
	}
}

func TestPreferredName(t *testing.T) {
	t.Parallel()

	rows := rosterRows()
	if got := PreferredName(rows[0]); got != "Dana" {
		t.Fatalf("PreferredName() = %q, want %q", got, "Dana")
	}
	// Falls through to the first-name column when the preferred cell is empty.
	if got := PreferredName(rows[1]); got != "Lee" {
		t.Fatalf("PreferredName() = %q, want %q", got, "Lee")
	}
	if got := PreferredName(Record{"Email": "x@example.com"}); got != "" {
		t.Fatalf("PreferredName() = %q, want empty", got)
	}
}

func TestParseValues(t *testing.T) {
	t.Parallel()

	headers, rows := parseValues([][]any{
		{"Name (first)", "Slack ID"},
		{"Dana", "U1"},
		{"Lee"},
	})
	if len(headers) != 2 || headers[1] != "Slack ID" {
		t.Fatalf("headers = %v", headers)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[1]["Slack ID"] != "" {
		t.Fatalf("short row slack id = %q, want empty", rows[1]["Slack ID"])
	}
}

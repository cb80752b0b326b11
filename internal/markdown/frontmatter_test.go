package markdown

import (
	"strings"
	"testing"
)

type cardMeta struct {
	SlackID string `yaml:"slack_id"`
	Name    string `yaml:"name"`
}

func TestParseFrontmatter(t *testing.T) {
	t.Parallel()

	doc := "---\nslack_id: U1\nname: Dana\n---\nNotes about Dana.\n"
	meta, body, ok := ParseFrontmatter[cardMeta](doc)
	if !ok {
		t.Fatalf("ParseFrontmatter() ok = false, want true")
	}
	if meta.SlackID != "U1" || meta.Name != "Dana" {
		t.Fatalf("ParseFrontmatter() meta = %+v", meta)
	}
	if strings.TrimSpace(body) != "Notes about Dana." {
		t.Fatalf("ParseFrontmatter() body = %q", body)
	}
}

func TestParseFrontmatterNoBlock(t *testing.T) {
	t.Parallel()

	_, body, ok := ParseFrontmatter[cardMeta]("just text")
	if ok {
		t.Fatalf("ParseFrontmatter() ok = true, want false")
	}
	if body != "just text" {
		t.Fatalf("ParseFrontmatter() body = %q", body)
	}
}

func TestBuildFrontmatterRoundTrip(t *testing.T) {
	t.Parallel()

	doc, err := BuildFrontmatter(cardMeta{SlackID: "U2", Name: "Lee"}, "Body line.")
	if err != nil {
		t.Fatalf("BuildFrontmatter() error = %v", err)
	}
	meta, body, ok := ParseFrontmatter[cardMeta](doc)
	if !ok {
		t.Fatalf("round trip lost the frontmatter block:\n%s", doc)
	}
	if meta.SlackID != "U2" || meta.Name != "Lee" {
		t.Fatalf("round trip meta = %+v", meta)
	}
	if strings.TrimSpace(body) != "Body line." {
		t.Fatalf("round trip body = %q", body)
	}
}

func TestSplitFrontmatterUnclosed(t *testing.T) {
	t.Parallel()

	doc := "---\nname: x\nno closing fence"
	_, body, ok := SplitFrontmatter(doc)
	if ok {
		t.Fatalf("SplitFrontmatter() ok = true, want false")
	}
	if body != doc {
		t.Fatalf("SplitFrontmatter() body = %q", body)
	}
}

package names

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/quailyquaily/slackmate/internal/fsstore"
	"github.com/quailyquaily/slackmate/internal/markdown"
)

type cardFrontmatter struct {
	SlackID    string `yaml:"slack_id"`
	Name       string `yaml:"name"`
	ResolvedAt string `yaml:"resolved_at"`
}

// CardStore persists one markdown contact card per resolved user under a root
// directory. Cards survive restarts, so a known person is greeted by name
// even before any lookup source is reachable.
type CardStore struct {
	root string
	now  func() time.Time
}

func NewCardStore(root string) *CardStore {
	return &CardStore{root: strings.TrimSpace(root), now: time.Now}
}

func (s *CardStore) Put(userID, name string) error {
	if s == nil || s.root == "" {
		return nil
	}
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	if userID == "" || name == "" {
		return fmt.Errorf("user id and name are required")
	}
	doc, err := markdown.BuildFrontmatter(cardFrontmatter{
		SlackID:    userID,
		Name:       name,
		ResolvedAt: s.now().UTC().Format(time.RFC3339),
	}, "")
	if err != nil {
		return err
	}
	return fsstore.WriteTextAtomic(s.path(userID), doc, fsstore.FileOptions{})
}

func (s *CardStore) Get(userID string) (string, bool, error) {
	if s == nil || s.root == "" {
		return "", false, nil
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", false, nil
	}
	contents, ok, err := fsstore.ReadText(s.path(userID))
	if err != nil || !ok {
		return "", false, err
	}
	meta, _, parsed := markdown.ParseFrontmatter[cardFrontmatter](contents)
	if !parsed {
		return "", false, nil
	}
	name := strings.TrimSpace(meta.Name)
	return name, name != "", nil
}

func (s *CardStore) path(userID string) string {
	return filepath.Join(s.root, userID+".md")
}

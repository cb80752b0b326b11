package history

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/quailyquaily/slackmate/internal/fsstore"
)

const transcriptFileVersion = 1

type transcriptFile struct {
	Version int    `json:"version"`
	UserID  string `json:"user_id"`
	Turns   []Turn `json:"turns"`
}

// FileStore keeps one JSON transcript per user under a root directory,
// written with atomic renames.
type FileStore struct {
	root string
	mu   sync.Mutex
}

func NewFileStore(root string) (*FileStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("history root is required")
	}
	if err := fsstore.EnsureDir(root, 0); err != nil {
		return nil, err
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) Load(_ context.Context, userID string) ([]Turn, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var file transcriptFile
	ok, err := fsstore.ReadJSON(s.path(userID), &file)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Turn{}, nil
	}
	return file.Turns, nil
}

func (s *FileStore) Save(_ context.Context, userID string, turns []Turn) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return fsstore.WriteJSONAtomic(s.path(userID), transcriptFile{
		Version: transcriptFileVersion,
		UserID:  userID,
		Turns:   turns,
	}, fsstore.FileOptions{})
}

func (s *FileStore) path(userID string) string {
	return filepath.Join(s.root, userID+".json")
}

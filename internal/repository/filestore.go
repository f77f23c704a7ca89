package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fable/internal/logging"
	"fable/internal/story"
)

// FileStore keeps one JSON file per story under a base directory.
type FileStore struct {
	baseDir string
	logger  logging.Logger
}

// NewFileStore opens a file-backed store rooted at baseDir.
func NewFileStore(baseDir string, logger logging.Logger) (*FileStore, error) {
	if strings.HasPrefix(baseDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		baseDir = filepath.Join(home, baseDir[2:])
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create story directory: %w", err)
	}
	return &FileStore{
		baseDir: baseDir,
		logger:  logging.OrNop(logger),
	}, nil
}

// Put writes or overwrites the story's file.
func (s *FileStore) Put(ctx context.Context, st *story.Story) error {
	if st == nil || st.ID == "" {
		return fmt.Errorf("story needs an id to be stored")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode story %s: %w", st.ID, err)
	}
	path := filepath.Join(s.baseDir, st.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write story %s: %w", st.ID, err)
	}
	return nil
}

// GetAll loads every story file, newest first. Files that fail to
// decode are skipped with a log line rather than failing the load.
func (s *FileStore) GetAll(ctx context.Context) ([]*story.Story, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read story directory: %w", err)
	}

	var stories []*story.Story
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, readErr := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if readErr != nil {
			s.logger.Error("failed to read story file %s: %v", entry.Name(), readErr)
			continue
		}
		var st story.Story
		if jsonErr := json.Unmarshal(data, &st); jsonErr != nil {
			s.logger.Error("failed to decode story file %s: %v", entry.Name(), jsonErr)
			continue
		}
		stories = append(stories, &st)
	}

	sort.SliceStable(stories, func(i, j int) bool {
		if !stories[i].CreatedAt.Equal(stories[j].CreatedAt) {
			return stories[i].CreatedAt.After(stories[j].CreatedAt)
		}
		return stories[i].ID > stories[j].ID
	})
	return stories, nil
}

// Delete removes the story's file. Deleting a missing story is a no-op.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.baseDir, id+".json")
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete story %s: %w", id, err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)

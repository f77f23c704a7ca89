// Package profile keeps the reader's local state: favorites and a
// simple reading counter, persisted as one JSON file.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fable/internal/logging"
	"fable/internal/story"
)

// Profile is the persisted reader state.
type Profile struct {
	Name        string   `json:"name,omitempty"`
	Favorites   []string `json:"favorites"`
	StoriesRead int      `json:"storiesRead"`
}

// Service loads, mutates and persists the reader profile.
type Service struct {
	mu      sync.Mutex
	path    string
	profile Profile
	logger  logging.Logger
}

// Open loads the profile stored under dir, creating an empty one when
// none exists.
func Open(dir string, logger logging.Logger) (*Service, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create profile directory: %w", err)
	}

	s := &Service{
		path:   filepath.Join(dir, "profile.json"),
		logger: logging.OrNop(logger),
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if err := json.Unmarshal(data, &s.profile); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return s, nil
}

// Current returns a copy of the profile.
func (s *Service) Current() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.profile
	out.Favorites = append([]string(nil), s.profile.Favorites...)
	return out
}

// SetName updates the reader's name.
func (s *Service) SetName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.Name = name
	return s.flushLocked()
}

// ToggleFavorite flips the favorite mark for id and reports the new
// state.
func (s *Service) ToggleFavorite(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, fav := range s.profile.Favorites {
		if fav == id {
			s.profile.Favorites = append(s.profile.Favorites[:i], s.profile.Favorites[i+1:]...)
			return false, s.flushLocked()
		}
	}
	s.profile.Favorites = append(s.profile.Favorites, id)
	return true, s.flushLocked()
}

// IsFavorite reports whether id is marked as a favorite.
func (s *Service) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fav := range s.profile.Favorites {
		if fav == id {
			return true
		}
	}
	return false
}

// RemoveFavorite drops id from the favorites, used when a story is
// deleted.
func (s *Service) RemoveFavorite(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, fav := range s.profile.Favorites {
		if fav == id {
			s.profile.Favorites = append(s.profile.Favorites[:i], s.profile.Favorites[i+1:]...)
			return s.flushLocked()
		}
	}
	return nil
}

// MarkRead increments the reading counter.
func (s *Service) MarkRead() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.StoriesRead++
	return s.flushLocked()
}

// FavoriteStories filters the merged view down to favorites, keeping
// the view's order.
func (s *Service) FavoriteStories(view []*story.Story) []*story.Story {
	s.mu.Lock()
	favorites := make(map[string]struct{}, len(s.profile.Favorites))
	for _, fav := range s.profile.Favorites {
		favorites[fav] = struct{}{}
	}
	s.mu.Unlock()

	var out []*story.Story
	for _, st := range view {
		if _, ok := favorites[st.ID]; ok {
			out = append(out, st)
		}
	}
	return out
}

// MyStories filters the merged view down to generated stories.
func MyStories(view []*story.Story) []*story.Story {
	var out []*story.Story
	for _, st := range view {
		if st.Generated() {
			out = append(out, st)
		}
	}
	return out
}

func (s *Service) flushLocked() error {
	data, err := json.MarshalIndent(s.profile, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

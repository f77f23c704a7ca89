// Package repository reconciles the three sources a story can come
// from: the built-in catalog, persisted regenerated catalog variants,
// and stories generated at runtime.
package repository

import (
	"context"
	"fmt"
	"sync"

	"fable/internal/logging"
	"fable/internal/story"
)

// Repository serves the merged story view and routes every mutation
// through the persistence store before touching the in-memory state.
type Repository struct {
	store  Store
	logger logging.Logger

	catalog      []*story.Story
	catalogIndex map[string]int

	mu        sync.RWMutex
	overrides map[string]*story.Story // catalog id -> regenerated variant
	generated []*story.Story          // persisted, in store order
	pending   []*story.Story          // generated this session, persist failed
}

// New builds a repository over the store and the fixed catalog order.
func New(store Store, catalogStories []*story.Story, logger logging.Logger) *Repository {
	r := &Repository{
		store:        store,
		logger:       logging.OrNop(logger),
		catalog:      catalogStories,
		catalogIndex: make(map[string]int, len(catalogStories)),
		overrides:    make(map[string]*story.Story),
	}
	for i, st := range catalogStories {
		r.catalogIndex[st.ID] = i
	}
	return r
}

// Refresh reloads persisted stories and rebuilds the in-memory state.
// Pending stories that made it into the store stop being pending.
func (r *Repository) Refresh(ctx context.Context) error {
	stored, err := r.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load stored stories: %w", err)
	}

	overrides := make(map[string]*story.Story)
	var generated []*story.Story
	persistedIDs := make(map[string]struct{}, len(stored))
	for _, st := range stored {
		persistedIDs[st.ID] = struct{}{}
		if _, ok := r.catalogIndex[st.ID]; ok {
			overrides[st.ID] = st
			continue
		}
		generated = append(generated, st)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var pending []*story.Story
	for _, st := range r.pending {
		if _, ok := persistedIDs[st.ID]; !ok {
			pending = append(pending, st)
		}
	}

	r.overrides = overrides
	r.generated = generated
	r.pending = pending
	r.logger.Debug("repository refreshed: %d overrides, %d generated, %d pending",
		len(overrides), len(generated), len(pending))
	return nil
}

// All returns the merged view: the catalog in its fixed order with
// regenerated variants substituted in place, followed by generated
// stories in store order, followed by this session's unpersisted ones.
func (r *Repository) All() []*story.Story {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*story.Story, 0, len(r.catalog)+len(r.generated)+len(r.pending))
	for _, st := range r.catalog {
		if override, ok := r.overrides[st.ID]; ok {
			out = append(out, override)
			continue
		}
		out = append(out, st)
	}
	out = append(out, r.generated...)
	out = append(out, r.pending...)
	return out
}

// Get returns the story with the given id from the merged view.
func (r *Repository) Get(id string) (*story.Story, bool) {
	for _, st := range r.All() {
		if st.ID == id {
			return st, true
		}
	}
	return nil, false
}

// Save persists st and then updates the merged view. When persistence
// fails for a generated story, the story is still kept in memory for
// this session and the error is reported.
func (r *Repository) Save(ctx context.Context, st *story.Story) error {
	if st == nil || st.ID == "" {
		return fmt.Errorf("story needs an id to be saved")
	}

	persistErr := r.store.Put(ctx, st)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, isCatalog := r.catalogIndex[st.ID]; isCatalog {
		if persistErr != nil {
			return fmt.Errorf("persist catalog variant %s: %w", st.ID, persistErr)
		}
		r.overrides[st.ID] = st
		return nil
	}

	if persistErr != nil {
		r.logger.Warn("persist failed for %s, keeping story in memory: %v", st.ID, persistErr)
		r.upsertPendingLocked(st)
		return fmt.Errorf("persist story %s: %w", st.ID, persistErr)
	}

	r.removePendingLocked(st.ID)
	for i, existing := range r.generated {
		if existing.ID == st.ID {
			r.generated[i] = st
			return nil
		}
	}
	r.generated = append(r.generated, st)
	return nil
}

// Delete removes a generated story. Deleting a catalog id is a no-op:
// built-in stories cannot be removed, only their regenerated variants
// replaced.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, isCatalog := r.catalogIndex[id]; isCatalog {
		r.logger.Debug("ignoring delete of catalog story %s", id)
		return nil
	}

	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete story %s: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.removePendingLocked(id)
	for i, existing := range r.generated {
		if existing.ID == id {
			r.generated = append(r.generated[:i], r.generated[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Repository) upsertPendingLocked(st *story.Story) {
	for i, existing := range r.pending {
		if existing.ID == st.ID {
			r.pending[i] = st
			return
		}
	}
	r.pending = append(r.pending, st)
}

func (r *Repository) removePendingLocked(id string) {
	for i, existing := range r.pending {
		if existing.ID == id {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return
		}
	}
}

package app

import (
	"sync"
	"time"

	"github.com/yourusername/audio-extract-go/internal/domain"
)

// MemoryTaskStore is a bounded in-memory TaskStore. Entries are ephemeral:
// a process restart loses all of them, which is the documented contract.
// When the cap is reached the oldest entry is evicted; progress state is
// best-effort, so a stale poller seeing idle again is acceptable.
type MemoryTaskStore struct {
	mu         sync.RWMutex
	tasks      map[string]taskEntry
	maxEntries int
}

type taskEntry struct {
	task      domain.Task
	createdAt time.Time
}

// NewMemoryTaskStore creates a task store capped at maxEntries.
// A cap of zero or less means unbounded.
func NewMemoryTaskStore(maxEntries int) *MemoryTaskStore {
	return &MemoryTaskStore{
		tasks:      make(map[string]taskEntry),
		maxEntries: maxEntries,
	}
}

// Get returns the task for an id, reporting whether it exists.
func (s *MemoryTaskStore) Get(taskID string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.tasks[taskID]
	if !ok {
		return domain.Task{}, false
	}
	return entry.task, true
}

// Set creates or overwrites the task for an id. Last write wins.
func (s *MemoryTaskStore) Set(taskID string, task domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.tasks[taskID]; ok {
		s.tasks[taskID] = taskEntry{task: task, createdAt: existing.createdAt}
		return
	}

	if s.maxEntries > 0 && len(s.tasks) >= s.maxEntries {
		s.evictOldestLocked()
	}
	s.tasks[taskID] = taskEntry{task: task, createdAt: time.Now()}
}

// Delete removes the task for an id; deleting an absent id is a no-op.
func (s *MemoryTaskStore) Delete(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, taskID)
}

// Len returns the number of live entries.
func (s *MemoryTaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *MemoryTaskStore) evictOldestLocked() {
	var oldestID string
	var oldestAt time.Time
	for id, entry := range s.tasks {
		if oldestID == "" || entry.createdAt.Before(oldestAt) {
			oldestID = id
			oldestAt = entry.createdAt
		}
	}
	if oldestID != "" {
		delete(s.tasks, oldestID)
	}
}

package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/audio-extract-go/internal/domain"
)

func TestTaskStoreGetSet(t *testing.T) {
	store := NewMemoryTaskStore(10)

	_, ok := store.Get("missing")
	assert.False(t, ok)

	store.Set("t1", domain.Task{Progress: 42, Status: domain.StatusDownloading})
	task, ok := store.Get("t1")
	assert.True(t, ok)
	assert.Equal(t, 42, task.Progress)
	assert.Equal(t, domain.StatusDownloading, task.Status)
	assert.Equal(t, 1, store.Len())
}

func TestTaskStoreOverwrite(t *testing.T) {
	store := NewMemoryTaskStore(10)

	store.Set("t1", domain.Task{Progress: 10, Status: domain.StatusDownloading})
	store.Set("t1", domain.Task{Progress: 100, Status: domain.StatusCompleted})

	task, ok := store.Get("t1")
	assert.True(t, ok)
	assert.Equal(t, 100, task.Progress)
	assert.Equal(t, 1, store.Len())
}

func TestTaskStoreDelete(t *testing.T) {
	store := NewMemoryTaskStore(10)

	store.Set("t1", domain.Task{Progress: 50, Status: domain.StatusDownloading})
	store.Delete("t1")
	store.Delete("t1") // absent id is a no-op

	_, ok := store.Get("t1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestTaskStoreEvictsOldestAtCap(t *testing.T) {
	store := NewMemoryTaskStore(3)

	for i := 0; i < 3; i++ {
		store.Set(fmt.Sprintf("t%d", i), domain.Task{Progress: i, Status: domain.StatusDownloading})
		time.Sleep(2 * time.Millisecond)
	}
	store.Set("t3", domain.Task{Progress: 3, Status: domain.StatusDownloading})

	assert.Equal(t, 3, store.Len())
	_, ok := store.Get("t0")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = store.Get("t3")
	assert.True(t, ok)
}

func TestTaskStoreUnbounded(t *testing.T) {
	store := NewMemoryTaskStore(0)

	for i := 0; i < 100; i++ {
		store.Set(fmt.Sprintf("t%d", i), domain.Task{})
	}
	assert.Equal(t, 100, store.Len())
}

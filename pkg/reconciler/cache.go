package reconciler

import (
	"sync"

	"github.com/talentdeck/talentdeck/pkg/models"
)

// Cache is the local belief about job and task state. It is written only
// by the owning polling sessions and by mutation confirmations; everything
// else (aggregation, web handlers) reads snapshots. Writes are serialized
// with a mutex because sessions run on real goroutines.
type Cache struct {
	mu      sync.RWMutex
	jobs    map[string]*models.Job
	pending map[string]struct{}
	version uint64
}

func NewCache() *Cache {
	return &Cache{
		jobs:    make(map[string]*models.Job),
		pending: make(map[string]struct{}),
	}
}

// ApplyJobs merges an authoritative response. Every job record replaces
// its previous local copy wholesale; the cache never merges partial
// fields. Mutation-in-flight markers for tasks present in the response are
// cleared: the merged record is the confirmation.
func (c *Cache) ApplyJobs(jobs []*models.Job) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, job := range jobs {
		c.jobs[job.ID] = job

		for _, task := range job.Tasks {
			delete(c.pending, task.ID)
		}
	}

	c.version++
}

// Remove drops a job from the cache, e.g. after a confirmed delete.
func (c *Cache) Remove(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.jobs, jobID)
	c.version++
}

// Jobs returns a snapshot of every cached job.
func (c *Cache) Jobs() []*models.Job {
	c.mu.RLock()
	defer c.mu.RUnlock()

	jobs := make([]*models.Job, 0, len(c.jobs))
	for _, job := range c.jobs {
		jobs = append(jobs, job)
	}

	return jobs
}

// JobByID returns the cached job, or nil.
func (c *Cache) JobByID(id string) *models.Job {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.jobs[id]
}

// TaskByID searches every cached job for a task.
func (c *Cache) TaskByID(id string) *models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, job := range c.jobs {
		if task := job.TaskByID(id); task != nil {
			return task
		}
	}

	return nil
}

// Version is a monotonic merge counter, usable as a memoization key.
func (c *Cache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.version
}

// MarkMutationInFlight flags a task as having an unconfirmed mutation.
// The authoritative status field is untouched: only a merge may alter it.
func (c *Cache) MarkMutationInFlight(taskID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending[taskID] = struct{}{}
}

// ClearMutationInFlight removes the marker, used when a mutation request
// itself fails.
func (c *Cache) ClearMutationInFlight(taskID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pending, taskID)
}

// MutationInFlight reports whether a task has an unconfirmed mutation.
func (c *Cache) MutationInFlight(taskID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.pending[taskID]

	return ok
}

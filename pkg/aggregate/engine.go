// Package aggregate derives grouped display statistics from the job/task
// cache without mutating it.
package aggregate

import (
	"sort"
	"sync"
	"time"

	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/reconciler"
)

// Dimension selects what jobs are grouped by.
type Dimension string

const (
	ByWorkflow Dimension = "workflow"
	ByProject  Dimension = "project"
)

// AllKey is the key of the synthetic group that sums every other group.
const AllKey = "all"

// GroupStat is one row of the console's statistics view.
type GroupStat struct {
	Key             string    `json:"key"`
	Name            string    `json:"name"`
	Total           int       `json:"total"`
	SuccessCount    int       `json:"success_count"`
	FailedCount     int       `json:"failed_count"`
	ProcessingCount int       `json:"processing_count"`
	LastRunAt       time.Time `json:"last_run_at"`
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeProcessing
	outcomeSuccess
	outcomeOther
)

// classify buckets one job. Precedence is failed > processing > success:
// a single failed task marks the whole job failed no matter how many
// siblings succeeded, and success additionally requires the job itself to
// be completed or awaiting review.
func classify(job *models.Job) outcome {
	anyFailed, anyActive := false, false

	for _, task := range job.Tasks {
		switch task.Status {
		case models.TaskStatusFailed:
			anyFailed = true
		case models.TaskStatusPending, models.TaskStatusProcessing:
			anyActive = true
		}
	}

	switch {
	case anyFailed:
		return outcomeFailed
	case anyActive:
		return outcomeProcessing
	case job.Status == models.JobStatusCompleted || job.Status == models.JobStatusAwaitingReview:
		return outcomeSuccess
	default:
		return outcomeOther
	}
}

// GroupBy groups jobs along a dimension. Groups are sorted by most recent
// run first; the synthetic "all" group is prepended and sums the others,
// with LastRunAt being the max across groups.
func GroupBy(dimension Dimension, jobs []*models.Job) []GroupStat {
	byKey := make(map[string]*GroupStat)

	for _, job := range jobs {
		key, name := groupIdentity(dimension, job)

		stat, ok := byKey[key]
		if !ok {
			stat = &GroupStat{Key: key, Name: name}
			byKey[key] = stat
		}

		stat.Total++

		switch classify(job) {
		case outcomeFailed:
			stat.FailedCount++
		case outcomeProcessing:
			stat.ProcessingCount++
		case outcomeSuccess:
			stat.SuccessCount++
		case outcomeOther:
		}

		if job.CreatedAt.After(stat.LastRunAt) {
			stat.LastRunAt = job.CreatedAt
		}
	}

	groups := make([]GroupStat, 0, len(byKey))
	for _, stat := range byKey {
		groups = append(groups, *stat)
	}

	sort.Slice(groups, func(i, j int) bool {
		if !groups[i].LastRunAt.Equal(groups[j].LastRunAt) {
			return groups[i].LastRunAt.After(groups[j].LastRunAt)
		}

		return groups[i].Key < groups[j].Key
	})

	all := GroupStat{Key: AllKey, Name: "All"}
	for _, g := range groups {
		all.Total += g.Total
		all.SuccessCount += g.SuccessCount
		all.FailedCount += g.FailedCount
		all.ProcessingCount += g.ProcessingCount

		if g.LastRunAt.After(all.LastRunAt) {
			all.LastRunAt = g.LastRunAt
		}
	}

	return append([]GroupStat{all}, groups...)
}

func groupIdentity(dimension Dimension, job *models.Job) (string, string) {
	if dimension == ByProject {
		if job.ProjectID == "" {
			return "unassigned", "Unassigned"
		}

		return job.ProjectID, job.ProjectID
	}

	return job.WorkflowID, job.WorkflowName
}

// Engine memoizes GroupBy results on the cache's merge counter, so a view
// re-rendered without an intervening merge costs nothing.
type Engine struct {
	cache *reconciler.Cache

	mu      sync.Mutex
	version uint64
	memo    map[Dimension][]GroupStat
}

func NewEngine(cache *reconciler.Cache) *Engine {
	return &Engine{
		cache: cache,
		memo:  make(map[Dimension][]GroupStat),
	}
}

// GroupBy computes (or reuses) the grouped statistics for the cache's
// current contents.
func (e *Engine) GroupBy(dimension Dimension) []GroupStat {
	e.mu.Lock()
	defer e.mu.Unlock()

	version := e.cache.Version()
	if version != e.version {
		e.memo = make(map[Dimension][]GroupStat)
		e.version = version
	}

	if stats, ok := e.memo[dimension]; ok {
		return stats
	}

	stats := GroupBy(dimension, e.cache.Jobs())
	e.memo[dimension] = stats

	return stats
}

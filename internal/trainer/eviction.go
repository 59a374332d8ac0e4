package trainer

import (
	"time"

	"github.com/Meesho/BharatMLStack/trainflow/pkg/metric"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// StartEvictionScheduler periodically drops terminal jobs that outlived the
// configured TTL from the registry. Jobs are kept for the process lifetime by
// default, so this is opt-in: a zero TTL disables eviction and the scheduler
// is never started.
func (o *Orchestrator) StartEvictionScheduler(cronExpression string) error {
	if o.jobTTL <= 0 {
		log.Info().Msg("Job TTL not set, registry eviction disabled")
		return nil
	}

	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(cronExpression, o.evictExpired); err != nil {
		return err
	}
	c.Start()

	o.mu.Lock()
	o.cron = c
	o.mu.Unlock()
	log.Info().Str("cron", cronExpression).Dur("ttl", o.jobTTL).Msg("Job registry eviction scheduler started")
	return nil
}

// StopEvictionScheduler halts the eviction cron if one is running.
func (o *Orchestrator) StopEvictionScheduler() {
	o.mu.Lock()
	c := o.cron
	o.cron = nil
	o.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}

// evictExpired removes completed/failed jobs whose terminal state is older
// than the TTL. Running jobs are never evicted.
func (o *Orchestrator) evictExpired() {
	cutoff := time.Now().Add(-o.jobTTL)

	o.mu.Lock()
	evicted := 0
	kept := o.order[:0]
	for _, id := range o.order {
		job, ok := o.jobs[id]
		if ok && job.state.Terminal() && job.finishedAt.Before(cutoff) {
			delete(o.jobs, id)
			evicted++
			continue
		}
		kept = append(kept, id)
	}
	o.order = kept
	o.mu.Unlock()

	if evicted > 0 {
		metric.Count(metric.JobRegistryEvictedJobs, int64(evicted), nil)
		log.Info().Int("evicted", evicted).Msg("Evicted expired training jobs")
	}
}

package cron

import "context"

// Job is one maintenance routine the worker runs each cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the maintenance jobs in run order.
type Registry struct {
	jobs []Job
}

// NewRegistry seeds the registry, skipping nil entries.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		registry.jobs = append(registry.jobs, job)
	}
	return registry
}

// Register appends a job to the cycle.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

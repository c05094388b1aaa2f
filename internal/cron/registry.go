package cron

import "context"

// Job is one unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs in registration order.
type Registry struct {
	jobs []Job
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register ignores nil so optional jobs can be passed unconditionally.
func (r *Registry) Register(job Job) {
	if job != nil {
		r.jobs = append(r.jobs, job)
	}
}

// Jobs returns a copy.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}

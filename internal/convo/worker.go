package convo

import "context"

type workerOptions[J any] struct {
	ctx    context.Context
	sem    chan struct{}
	jobs   <-chan J
	handle func(context.Context, J)
}

// startWorker drains one job channel. The shared semaphore bounds how many
// workers run a job at the same time across all users.
func startWorker[J any](opts workerOptions[J]) {
	go func() {
		for {
			select {
			case <-opts.ctx.Done():
				return
			case job, ok := <-opts.jobs:
				if !ok {
					return
				}
				select {
				case opts.sem <- struct{}{}:
				case <-opts.ctx.Done():
					return
				}
				func() {
					defer func() { <-opts.sem }()
					opts.handle(opts.ctx, job)
				}()
			}
		}
	}()
}

func enqueueJob[J any](ctx, workersCtx context.Context, jobs chan<- J, job J) error {
	if ctx == nil {
		ctx = workersCtx
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-workersCtx.Done():
		return workersCtx.Err()
	case jobs <- job:
		return nil
	}
}

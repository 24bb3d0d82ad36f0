package analysis

import (
	"context"
	"fmt"

	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/session"
)

// Stage is one named unit of work in an analysis pipeline.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pipeline is an ordered sequence of stages. Later stages consume the
// outputs of earlier ones, so they always run sequentially.
type Pipeline []Stage

// Runner executes pipelines on dedicated goroutines, one per session. The
// runner goroutine is the sole writer of its session's log and terminal
// state; submission returns immediately.
type Runner struct {
	store *session.Store
}

// NewRunner creates a runner writing into the given store.
func NewRunner(store *session.Store) *Runner {
	return &Runner{store: store}
}

// Start launches the pipeline for a session in the background. result is
// called after every stage succeeds to compose the terminal payload.
func (r *Runner) Start(id string, p Pipeline, result func() any) {
	go r.run(id, p, result)
}

func (r *Runner) run(id string, p Pipeline, result func() any) {
	sess, ok := r.store.Get(id)
	if !ok {
		return
	}
	log := sess.Log()

	// A panicking stage must fail the session, never crash the process.
	defer func() {
		if rec := recover(); rec != nil {
			msg := fmt.Sprintf("internal fault: %v", rec)
			log.Appendf("✗ Analysis failed: %s", msg)
			r.store.Fail(id, msg)
		}
	}()

	ctx := context.Background()

	for _, stage := range p {
		if sess.Cancelled() {
			log.Append("✗ Analysis cancelled")
			r.store.Fail(id, "analysis cancelled")
			return
		}

		log.Appendf("Starting %s...", stage.Name)
		if err := stage.Run(ctx); err != nil {
			log.Appendf("✗ %s failed: %v", stage.Name, err)
			r.store.Fail(id, err.Error())
			return
		}
		log.Appendf("✓ %s succeeded", stage.Name)
	}

	log.Append("✓ Analysis complete!")
	r.store.Complete(id, result())
}

package tasks

import (
	"context"
	"errors"
	"log/slog"
)

// ErrPersistence marks state read/write failures. They are fatal for the
// run: silently losing watermark or ledger updates would cause duplicate
// republishing on the next run.
var ErrPersistence = errors.New("state persistence error")

// Runner executes tasks sequentially in the order they were added. One
// feed's failure does not prevent the remaining feeds from running.
type Runner struct {
	tasks []TaskInterface
}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Add(task TaskInterface) {
	r.tasks = append(r.tasks, task)
}

func (r *Runner) Run(ctx context.Context) error {
	for _, task := range r.tasks {
		task.Start()
		if err := task.Execute(ctx); err != nil {
			if errors.Is(err, ErrPersistence) {
				return err
			}
			slog.Error("Task failed",
				"type", task.GetType(),
				"feed", task.GetFeedURL(),
				"error", err)
		}
	}

	return nil
}

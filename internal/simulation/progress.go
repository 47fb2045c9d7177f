package simulation

import "log"

// Observer receives progress notifications while a batch executes. The
// runner invokes it from worker goroutines, so implementations must be
// safe for concurrent use. The engine itself never logs.
type Observer interface {
	// RunsCompleted is called each time the completed-run count crosses a
	// multiple of the runner's progress interval, and once at the end.
	RunsCompleted(completed, total int)
}

// NopObserver discards progress notifications.
type NopObserver struct{}

func (NopObserver) RunsCompleted(int, int) {}

// LogObserver writes progress lines to a standard logger.
type LogObserver struct {
	Logger *log.Logger
}

func (o LogObserver) RunsCompleted(completed, total int) {
	o.Logger.Printf("completed %d/%d simulations", completed, total)
}

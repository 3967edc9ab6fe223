package supervisor

import "time"

// Worker is one unit of supervised work with a stable label. The label
// is used for logging and completion reporting only.
type Worker struct {
	Label string
	Run   func()
}

// WorkerStatus reports whether a worker finished before the join
// deadline. An incomplete worker keeps running; joins are advisory.
type WorkerStatus struct {
	Label     string
	Completed bool
}

// LaunchAndJoin starts every worker before joining any of them (true
// fan-out, one goroutine per worker), then waits for each under a
// shared deadline. Workers still running at the deadline are reported
// as incomplete but are not interrupted.
func LaunchAndJoin(workers []Worker, timeout time.Duration) []WorkerStatus {
	done := make([]chan struct{}, len(workers))
	for i, w := range workers {
		ch := make(chan struct{})
		done[i] = ch
		go func(w Worker, ch chan struct{}) {
			defer close(ch)
			w.Run()
		}(w, ch)
	}

	deadline := time.Now().Add(timeout)
	statuses := make([]WorkerStatus, len(workers))
	for i, w := range workers {
		statuses[i].Label = w.Label

		// Already finished while an earlier worker was being joined.
		select {
		case <-done[i]:
			statuses[i].Completed = true
			continue
		default:
		}

		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		timer := time.NewTimer(remaining)
		select {
		case <-done[i]:
			timer.Stop()
			statuses[i].Completed = true
		case <-timer.C:
		}
	}
	return statuses
}

package supervisor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLaunchAndJoinAllComplete(t *testing.T) {
	var ran int32
	workers := []Worker{
		{Label: "a", Run: func() { atomic.AddInt32(&ran, 1) }},
		{Label: "b", Run: func() { atomic.AddInt32(&ran, 1) }},
		{Label: "c", Run: func() { atomic.AddInt32(&ran, 1) }},
	}

	statuses := LaunchAndJoin(workers, time.Second)
	assert.Len(t, statuses, 3)
	for i, status := range statuses {
		assert.Equal(t, workers[i].Label, status.Label)
		assert.True(t, status.Completed)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&ran))
}

func TestLaunchAndJoinReportsOverrun(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	workers := []Worker{
		{Label: "fast", Run: func() {}},
		{Label: "slow", Run: func() { <-release }},
		{Label: "also-fast", Run: func() {}},
	}

	statuses := LaunchAndJoin(workers, 50*time.Millisecond)

	byLabel := make(map[string]bool, len(statuses))
	for _, status := range statuses {
		byLabel[status.Label] = status.Completed
	}
	assert.True(t, byLabel["fast"])
	assert.False(t, byLabel["slow"], "overrunning worker is reported, not killed")
	assert.True(t, byLabel["also-fast"])
}

func TestLaunchAndJoinEmpty(t *testing.T) {
	assert.Empty(t, LaunchAndJoin(nil, time.Second))
}

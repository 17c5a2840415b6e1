package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunStopsOnTerminalStatus(t *testing.T) {
	fetches := atomic.Int32{}
	p := New(time.Millisecond, func(c context.Context) (string, error) {
		if fetches.Add(1) >= 3 {
			return "paid", nil
		}
		return "pending", nil
	}, func(status string) bool { return status == "paid" })

	seen := []string{}
	last := p.Run(context.Background(), func(status string) {
		seen = append(seen, status)
	})

	assert.Equal(t, "paid", last)
	assert.Equal(t, []string{"pending", "pending", "paid"}, seen)
	assert.Equal(t, int32(3), fetches.Load(), "polling must stop once the status is terminal")
}

func TestRunStopsOnCancel(t *testing.T) {
	c, cancel := context.WithCancel(context.Background())
	fetches := atomic.Int32{}
	p := New(time.Millisecond, func(c context.Context) (string, error) {
		if fetches.Add(1) == 5 {
			cancel()
		}
		return "pending", nil
	}, func(status string) bool { return status == "paid" })

	done := make(chan string, 1)
	go func() {
		done <- p.Run(c, func(string) {})
	}()

	select {
	case last := <-done:
		assert.Equal(t, "pending", last)
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop on context cancellation")
	}
}

func TestRunKeepsPollingThroughErrors(t *testing.T) {
	fetches := atomic.Int32{}
	p := New(time.Millisecond, func(c context.Context) (string, error) {
		n := fetches.Add(1)
		if n < 3 {
			return "", errors.New("upstream hiccup")
		}
		return "paid", nil
	}, func(status string) bool { return status == "paid" })

	statuses := atomic.Int32{}
	last := p.Run(context.Background(), func(string) { statuses.Add(1) })

	assert.Equal(t, "paid", last)
	assert.Equal(t, int32(1), statuses.Load(), "errors are not reported as statuses")
}

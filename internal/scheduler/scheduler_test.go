package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"politics_fetcher/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRunOnce_RunsJobsInOrderWithDeadline(t *testing.T) {
	var order []string
	jobs := []Job{
		{Name: "accounts", Run: func(ctx context.Context) domain.Summary {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			order = append(order, "accounts")
			return domain.Summary{Success: true, Count: 3}
		}},
		{Name: "news", Run: func(ctx context.Context) domain.Summary {
			order = append(order, "news")
			return domain.Summary{Success: false, Message: "no sources reachable"}
		}},
	}

	s := NewScheduler(jobs, time.Hour, time.Minute, testLogger())
	summaries := s.RunOnce(context.Background())

	assert.Equal(t, []string{"accounts", "news"}, order)
	require.Len(t, summaries, 2)
	assert.Equal(t, 3, summaries[0].Count)
	assert.False(t, summaries[1].Success)
}

func TestRunOnce_JobTimeout(t *testing.T) {
	var err error
	s := NewScheduler([]Job{{Name: "slow", Run: func(ctx context.Context) domain.Summary {
		<-ctx.Done()
		err = ctx.Err()
		return domain.Summary{}
	}}}, time.Hour, 10*time.Millisecond, testLogger())

	s.RunOnce(context.Background())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestStart_TicksUntilCanceled(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	s := NewScheduler([]Job{{Name: "tick", Run: func(context.Context) domain.Summary {
		if runs.Add(1) == 3 {
			cancel()
		}
		return domain.Summary{Success: true}
	}}}, 5*time.Millisecond, time.Second, testLogger())

	err := s.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, runs.Load(), int32(3))
}

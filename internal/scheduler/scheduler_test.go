package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCleaner struct {
	calls atomic.Int32
	err   error
}

func (c *fakeCleaner) ScanAndClean(_ context.Context) (int, error) {
	c.calls.Add(1)
	return 2, c.err
}

type fakeBackuper struct {
	calls    atomic.Int32
	baseTime time.Time
}

func (b *fakeBackuper) DoBackup(_ context.Context, baseTime time.Time) (int, error) {
	b.calls.Add(1)
	b.baseTime = baseTime
	return 10, nil
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New(context.Background())
	assert.Error(t, s.AddSessionsCleanup("not a schedule", &fakeCleaner{}))
	assert.Error(t, s.AddRecordsBackup("61 * * * *", &fakeBackuper{}))
}

func TestScheduler_Jobs(t *testing.T) {
	s := New(context.Background())
	fixed := time.Date(2026, 3, 2, 4, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	cleaner := &fakeCleaner{err: errors.New("redis down")}
	s.sessionsCleanupJob(cleaner)()
	assert.Equal(t, int32(1), cleaner.calls.Load())

	backuper := &fakeBackuper{}
	s.recordsBackupJob(backuper)()
	assert.Equal(t, int32(1), backuper.calls.Load())
	assert.Equal(t, fixed, backuper.baseTime)
}

func TestScheduler_RunsScheduledJobs(t *testing.T) {
	s := New(context.Background())
	cleaner := &fakeCleaner{}
	require.NoError(t, s.AddSessionsCleanup("@every 1s", cleaner))

	s.Start()
	require.Eventually(t, func() bool {
		return cleaner.calls.Load() > 0
	}, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

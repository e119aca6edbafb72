package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	exit    chan struct{}
	err     error
	stopped bool
	once    sync.Once
	mu      sync.Mutex
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{exit: make(chan struct{})}
}

func (p *fakeProcess) Wait() error {
	<-p.exit
	return p.err
}

func (p *fakeProcess) Stop() error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.once.Do(func() { close(p.exit) })
	return nil
}

// crash makes the process exit on its own with err.
func (p *fakeProcess) crash(err error) {
	p.err = err
	p.once.Do(func() { close(p.exit) })
}

func (p *fakeProcess) wasStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

type processLog struct {
	mu    sync.Mutex
	procs []*fakeProcess
}

func (l *processLog) start(context.Context) (Process, error) {
	p := newFakeProcess()
	l.mu.Lock()
	l.procs = append(l.procs, p)
	l.mu.Unlock()
	return p, nil
}

func (l *processLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.procs)
}

func (l *processLog) at(i int) *fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.procs[i]
}

func TestSupervisor_RestartsOnSourceChange(t *testing.T) {
	dir := t.TempDir()
	log := &processLog{}
	sup := &Supervisor{
		Dirs:     []string{dir},
		Debounce: 50 * time.Millisecond,
		Start:    log.start,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	require.Eventually(t, func() bool { return log.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "handler.go"), []byte("package x\n"), 0o644))

	require.Eventually(t, func() bool { return log.count() == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.True(t, log.at(0).wasStopped())

	cancel()
	require.NoError(t, <-done)
	assert.True(t, log.at(1).wasStopped())
}

func TestSupervisor_StopsChildOnCancel(t *testing.T) {
	// A signal during setup cancels the run context; the supervisor must
	// stop the child instead of orphaning it.
	dir := t.TempDir()
	log := &processLog{}
	sup := &Supervisor{
		Dirs:     []string{dir},
		Debounce: 50 * time.Millisecond,
		Start:    log.start,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	require.Eventually(t, func() bool { return log.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.True(t, log.at(0).wasStopped())
}

func TestSupervisor_ChildCrashPropagates(t *testing.T) {
	dir := t.TempDir()
	log := &processLog{}
	sup := &Supervisor{
		Dirs:     []string{dir},
		Debounce: 50 * time.Millisecond,
		Start:    log.start,
	}

	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	require.Eventually(t, func() bool { return log.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	crash := errors.New("exit status 2")
	log.at(0).crash(crash)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, crash)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not exit after child crash")
	}
}

func TestRelevantChange(t *testing.T) {
	write := func(name string) fsnotify.Event {
		return fsnotify.Event{Name: name, Op: fsnotify.Write}
	}
	assert.True(t, relevantChange(write("internal/api/router.go")))
	assert.True(t, relevantChange(fsnotify.Event{Name: "cmd/new.go", Op: fsnotify.Create}))
	assert.False(t, relevantChange(write("internal/api/.router.go.swx")))
	assert.False(t, relevantChange(write("internal/api/router.go~")))
	assert.False(t, relevantChange(write("internal/api/router.go.swp")))
	assert.False(t, relevantChange(fsnotify.Event{Name: "internal/api/router.go", Op: fsnotify.Chmod}))
}

package bootstrap

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Process is a running server child the supervisor can reap and stop.
type Process interface {
	// Wait blocks until the process exits and returns its exit error.
	Wait() error
	// Stop terminates the process gracefully, escalating to a kill if it
	// does not exit within the grace period. Stop blocks until exit.
	Stop() error
}

// Supervisor runs a child process and restarts it whenever a watched
// source file changes. Restarts are debounced so an editor save burst
// triggers one restart, not many.
type Supervisor struct {
	Dirs     []string
	Debounce time.Duration
	Start    func(ctx context.Context) (Process, error)
}

// Run starts the child and supervises it until the context is cancelled or
// the child exits on its own. A self-initiated clean exit returns nil; a
// crash propagates the child's error.
func (s *Supervisor) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, dir := range s.Dirs {
		if err := watchRecursive(watcher, dir); err != nil {
			slog.WarnContext(ctx, "watching directory failed", "dir", dir, "error", err)
		}
	}

	child, err := s.Start(ctx)
	if err != nil {
		return err
	}
	exited := reap(child)

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			_ = child.Stop()
			<-exited
			return nil

		case err := <-exited:
			return err

		case ev := <-watcher.Events:
			if !relevantChange(ev) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					_ = watchRecursive(watcher, ev.Name)
				}
			}
			debounce.Reset(s.Debounce)
			pending = debounce.C

		case err := <-watcher.Errors:
			slog.WarnContext(ctx, "file watcher error", "error", err)

		case <-pending:
			pending = nil
			slog.InfoContext(ctx, "source change detected, restarting server")
			_ = child.Stop()
			<-exited
			child, err = s.Start(ctx)
			if err != nil {
				return err
			}
			exited = reap(child)
		}
	}
}

func reap(p Process) chan error {
	ch := make(chan error, 1)
	go func() { ch <- p.Wait() }()
	return ch
}

// relevantChange filters the event stream down to edits worth a restart:
// hidden files, editor droppings, and bare chmods are ignored.
func relevantChange(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return false
	}
	return true
}

func watchRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") && path != root {
			return fs.SkipDir
		}
		return watcher.Add(path)
	})
}

// execProcess is the real server child, spawned from the setup binary.
type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

const stopGrace = 5 * time.Second

func startChild(ctx context.Context, exe string, args, extraEnv []string) (Process, error) {
	cmd := exec.Command(exe, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), extraEnv...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	slog.InfoContext(ctx, "server started", "pid", cmd.Process.Pid)
	return p, nil
}

func (p *execProcess) Wait() error {
	<-p.done
	return p.err
}

func (p *execProcess) Stop() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = p.cmd.Process.Kill()
	}
	select {
	case <-p.done:
	case <-time.After(stopGrace):
		_ = p.cmd.Process.Kill()
		<-p.done
	}
	return nil
}

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshavgujrathi/scholariq/internal/config"
)

// fakeRunner records every command instead of executing it.
type fakeRunner struct {
	missing   map[string]bool
	goVersion string
	failOn    string // fail any Run whose argv contains this substring
	calls     [][]string
	envs      [][]string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{goVersion: "1.24.0"}
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.missing[name] {
		return "", fmt.Errorf("%s: executable file not found in $PATH", name)
	}
	return "/usr/bin/" + name, nil
}

func (f *fakeRunner) Run(_ context.Context, extraEnv []string, name string, args ...string) error {
	argv := append([]string{name}, args...)
	f.calls = append(f.calls, argv)
	f.envs = append(f.envs, extraEnv)
	if f.failOn != "" && strings.Contains(strings.Join(argv, " "), f.failOn) {
		return fmt.Errorf("%s: exit status 1", name)
	}
	return nil
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) (string, error) {
	if name == "go" && len(args) == 1 && args[0] == "version" {
		return "go version go" + f.goVersion + " linux/amd64", nil
	}
	return "", fmt.Errorf("unexpected command %s %v", name, args)
}

// call reports whether any recorded command line contains all the given
// tokens in order.
func (f *fakeRunner) call(tokens ...string) bool {
	for _, argv := range f.calls {
		if containsSeq(argv, tokens) {
			return true
		}
	}
	return false
}

func containsSeq(argv, tokens []string) bool {
	for i := 0; i+len(tokens) <= len(argv); i++ {
		match := true
		for j, tok := range tokens {
			if argv[i+j] != tok {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func newTestOrchestrator(t *testing.T, opts Options, runner *fakeRunner) *Orchestrator {
	t.Helper()
	chdir(t, t.TempDir())

	require.NoError(t, os.WriteFile("tools.txt", []byte("# core tools\ngolang.org/x/tools/cmd/goimports@v0.28.0\n"), 0o644))
	require.NoError(t, os.WriteFile("tools-dev.txt", []byte("honnef.co/go/tools/cmd/staticcheck@v0.5.1\n"), 0o644))
	require.NoError(t, os.WriteFile(".env.example", []byte("APP_ENV=development\nPORT=8000\n"), 0o644))

	o := &Orchestrator{
		opts: opts,
		layout: config.BootstrapConfig{
			EnvDir:       ".devenv",
			Manifest:     "tools.txt",
			DevManifest:  "tools-dev.txt",
			EnvTemplate:  ".env.example",
			EnvFile:      ".env",
			MinGoVersion: "1.22",
			WatchDirs:    []string{"internal"},
		},
		runner:      runner,
		exe:         "/opt/scholariq/bin/scholariq",
		initDB:      func(context.Context) error { return nil },
		interactive: func() bool { return false },
		stdin:       strings.NewReader(""),
		stdout:      os.Stdout,
	}
	return o
}

func defaultOptions() Options {
	return Options{Host: "0.0.0.0", Port: 8000, Workers: 1, NoReload: true, Yes: true}
}

func TestRun_FullPipeline(t *testing.T) {
	runner := newFakeRunner()
	o := newTestOrchestrator(t, defaultOptions(), runner)

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, result.Status)
	require.Len(t, result.Steps, 6)
	for _, s := range result.Steps {
		assert.Equal(t, StatusOK, s.Status, s.Name)
	}

	// Environment and workspace directories exist.
	assert.DirExists(t, filepath.Join(".devenv", "bin"))
	assert.FileExists(t, filepath.Join(".devenv", markerFile))
	assert.DirExists(t, "data/uploads")
	assert.DirExists(t, "logs")

	// Installer primed the cache, then installed the pinned tool.
	assert.True(t, runner.call("go", "mod", "download"))
	assert.True(t, runner.call("go", "install", "golang.org/x/tools/cmd/goimports@v0.28.0"))

	// Server launched with the expected argv.
	assert.True(t, runner.call("serve", "--host", "0.0.0.0", "--port", "8000"))
}

func TestRun_RerunLeavesEnvironmentUntouched(t *testing.T) {
	runner := newFakeRunner()
	o := newTestOrchestrator(t, defaultOptions(), runner)

	_, err := o.Run(context.Background())
	require.NoError(t, err)

	// Plant a sentinel inside the environment; a rerun without --force must
	// preserve it.
	sentinel := filepath.Join(".devenv", "bin", "sentinel")
	require.NoError(t, os.WriteFile(sentinel, []byte("keep me"), 0o644))
	markerBefore, err := os.ReadFile(filepath.Join(".devenv", markerFile))
	require.NoError(t, err)

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, result.Status)

	assert.FileExists(t, sentinel)
	markerAfter, err := os.ReadFile(filepath.Join(".devenv", markerFile))
	require.NoError(t, err)
	assert.Equal(t, markerBefore, markerAfter)

	step, ok := result.Step(StepEnvDir)
	require.True(t, ok)
	assert.Contains(t, step.Detail, "reused")
}

func TestRun_ForceRecreatesEnvironment(t *testing.T) {
	runner := newFakeRunner()
	o := newTestOrchestrator(t, defaultOptions(), runner)

	_, err := o.Run(context.Background())
	require.NoError(t, err)

	sentinel := filepath.Join(".devenv", "bin", "sentinel")
	require.NoError(t, os.WriteFile(sentinel, []byte("stale"), 0o644))

	o.opts.Force = true
	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, result.Status)

	assert.NoFileExists(t, sentinel)
	assert.FileExists(t, filepath.Join(".devenv", markerFile))
}

func TestRun_ExistingEnvFileNeverOverwritten(t *testing.T) {
	runner := newFakeRunner()
	o := newTestOrchestrator(t, defaultOptions(), runner)

	edited := []byte("APP_ENV=development\nPORT=9999\n# my local edits\n")
	require.NoError(t, os.WriteFile(".env", edited, 0o644))

	_, err := o.Run(context.Background())
	require.NoError(t, err)

	after, err := os.ReadFile(".env")
	require.NoError(t, err)
	assert.Equal(t, edited, after)
}

func TestRun_MaterializesEnvFileFromTemplate(t *testing.T) {
	runner := newFakeRunner()
	o := newTestOrchestrator(t, defaultOptions(), runner)

	_, err := o.Run(context.Background())
	require.NoError(t, err)

	template, err := os.ReadFile(".env.example")
	require.NoError(t, err)
	active, err := os.ReadFile(".env")
	require.NoError(t, err)
	assert.Equal(t, template, active)
}

func TestRun_MissingRuntimeNoSideEffects(t *testing.T) {
	runner := newFakeRunner()
	runner.missing = map[string]bool{"go": true}
	o := newTestOrchestrator(t, defaultOptions(), runner)

	result, err := o.Run(context.Background())
	require.ErrorIs(t, err, ErrSetupFailed)
	assert.Equal(t, StatusError, result.Status)
	require.Len(t, result.Steps, 1)
	assert.Contains(t, result.Steps[0].Error, "go toolchain not found")

	assert.NoDirExists(t, ".devenv")
	assert.NoFileExists(t, ".env")
	assert.Empty(t, runner.calls)
}

func TestRun_OutdatedRuntimeFails(t *testing.T) {
	runner := newFakeRunner()
	runner.goVersion = "1.20.5"
	o := newTestOrchestrator(t, defaultOptions(), runner)

	result, err := o.Run(context.Background())
	require.ErrorIs(t, err, ErrSetupFailed)
	step, ok := result.Step(StepPrereq)
	require.True(t, ok)
	assert.Contains(t, step.Error, "1.22 or newer required")
	assert.NoDirExists(t, ".devenv")
}

func TestRun_DatabaseFailureStillLaunches(t *testing.T) {
	runner := newFakeRunner()
	o := newTestOrchestrator(t, defaultOptions(), runner)
	o.initDB = func(context.Context) error { return errors.New("connection refused") }

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, result.Status)

	step, ok := result.Step(StepInitDB)
	require.True(t, ok)
	assert.Equal(t, StatusWarning, step.Status)
	assert.Contains(t, step.Error, "connection refused")

	// The launch step must still have run.
	assert.True(t, runner.call("serve"))
	launch, ok := result.Step(StepLaunch)
	require.True(t, ok)
	assert.Equal(t, StatusOK, launch.Status)
}

func TestRun_StrictDBMakesDatabaseFailureFatal(t *testing.T) {
	opts := defaultOptions()
	opts.StrictDB = true
	runner := newFakeRunner()
	o := newTestOrchestrator(t, opts, runner)
	o.initDB = func(context.Context) error { return errors.New("connection refused") }

	result, err := o.Run(context.Background())
	require.ErrorIs(t, err, ErrSetupFailed)
	assert.Equal(t, StatusError, result.Status)
	assert.False(t, runner.call("serve"))

	_, ok := result.Step(StepLaunch)
	assert.False(t, ok)
}

func TestRun_PortFlagReachesChildExactlyOnce(t *testing.T) {
	opts := defaultOptions()
	opts.Port = 9000
	runner := newFakeRunner()
	o := newTestOrchestrator(t, opts, runner)

	_, err := o.Run(context.Background())
	require.NoError(t, err)

	var serveArgv []string
	for _, argv := range runner.calls {
		if len(argv) > 1 && argv[1] == "serve" {
			serveArgv = argv
		}
	}
	require.NotNil(t, serveArgv, "serve child was never spawned")

	var ports []string
	for i, arg := range serveArgv {
		if arg == "--port" && i+1 < len(serveArgv) {
			ports = append(ports, serveArgv[i+1])
		}
	}
	assert.Equal(t, []string{"9000"}, ports)
}

func TestRun_ChildEnvironmentIsExplicit(t *testing.T) {
	opts := defaultOptions()
	opts.Debug = true
	runner := newFakeRunner()
	o := newTestOrchestrator(t, opts, runner)

	_, err := o.Run(context.Background())
	require.NoError(t, err)

	last := runner.envs[len(runner.envs)-1]
	assert.Contains(t, last, "APP_ENV=development")
	assert.Contains(t, last, "DEBUG=true")
	assert.Contains(t, last, "LOG_LEVEL=DEBUG")

	// The orchestrator's own environment must not have been mutated.
	assert.NotEqual(t, "development", os.Getenv("APP_ENV"))
}

func TestRun_SkipLaunch(t *testing.T) {
	opts := defaultOptions()
	opts.SkipLaunch = true
	runner := newFakeRunner()
	o := newTestOrchestrator(t, opts, runner)

	result, err := o.Run(context.Background())
	require.NoError(t, err)

	step, ok := result.Step(StepLaunch)
	require.True(t, ok)
	assert.Equal(t, StatusSkipped, step.Status)
	assert.False(t, runner.call("serve"))
}

func TestRun_DevInstallsExtras(t *testing.T) {
	opts := defaultOptions()
	opts.Dev = true
	runner := newFakeRunner()
	o := newTestOrchestrator(t, opts, runner)

	_, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, runner.call("go", "install", "honnef.co/go/tools/cmd/staticcheck@v0.5.1"))
	assert.True(t, runner.call("pre-commit", "install"))
}

func TestRun_InstallFailureIsFatal(t *testing.T) {
	runner := newFakeRunner()
	runner.failOn = "go install"
	o := newTestOrchestrator(t, defaultOptions(), runner)

	result, err := o.Run(context.Background())
	require.ErrorIs(t, err, ErrSetupFailed)

	step, ok := result.Step(StepInstall)
	require.True(t, ok)
	assert.Equal(t, StatusError, step.Status)
	assert.False(t, runner.call("serve"))
}

func TestRun_ExistingEnvWithoutConsentFails(t *testing.T) {
	opts := defaultOptions()
	opts.Yes = false
	runner := newFakeRunner()
	o := newTestOrchestrator(t, opts, runner)
	require.NoError(t, os.MkdirAll(filepath.Join(".devenv", "bin"), 0o755))

	result, err := o.Run(context.Background())
	require.ErrorIs(t, err, ErrSetupFailed)

	step, ok := result.Step(StepEnvDir)
	require.True(t, ok)
	assert.Contains(t, step.Error, "--yes")
}

func TestRun_InteractiveReuseConfirmation(t *testing.T) {
	opts := defaultOptions()
	opts.Yes = false
	runner := newFakeRunner()
	o := newTestOrchestrator(t, opts, runner)
	o.interactive = func() bool { return true }
	o.stdin = strings.NewReader("y\n")
	require.NoError(t, os.MkdirAll(filepath.Join(".devenv", "bin"), 0o755))

	result, err := o.Run(context.Background())
	require.NoError(t, err)

	step, ok := result.Step(StepEnvDir)
	require.True(t, ok)
	assert.Contains(t, step.Detail, "reused")
}

func TestRun_RejectsConcurrentRun(t *testing.T) {
	runner := newFakeRunner()
	o := newTestOrchestrator(t, defaultOptions(), runner)

	o.inProgress.Store(true)
	_, err := o.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestParseGoVersion(t *testing.T) {
	v, err := parseGoVersion("go version go1.22.3 linux/amd64")
	require.NoError(t, err)
	assert.Equal(t, "1.22.3", v)

	_, err = parseGoVersion("gibberish")
	assert.Error(t, err)
}

func TestVersionAtLeast(t *testing.T) {
	assert.True(t, versionAtLeast("1.22.3", "1.22"))
	assert.True(t, versionAtLeast("1.24.0", "1.22"))
	assert.True(t, versionAtLeast("1.22", "1.22"))
	assert.False(t, versionAtLeast("1.21.13", "1.22"))
	assert.False(t, versionAtLeast("1.9", "1.22"))
}

func TestReadManifest(t *testing.T) {
	chdir(t, t.TempDir())
	content := "# tools\n\ngolang.org/x/tools/cmd/goimports@v0.28.0\n  honnef.co/go/tools/cmd/staticcheck@v0.5.1  \n"
	require.NoError(t, os.WriteFile("tools.txt", []byte(content), 0o644))

	tools, err := readManifest("tools.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"golang.org/x/tools/cmd/goimports@v0.28.0",
		"honnef.co/go/tools/cmd/staticcheck@v0.5.1",
	}, tools)
}

func TestReadManifest_UnpinnedEntry(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("tools.txt", []byte("golang.org/x/tools/cmd/goimports\n"), 0o644))

	_, err := readManifest("tools.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not pinned")
}

// chdir changes the working directory for the test and restores it on
// cleanup; testing.T.Chdir needs Go 1.24, unavailable on this toolchain.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}

// Package verify inspects a development environment and reports whether
// the backend can run in it. Checks are independent and run concurrently;
// each yields a pass/fail plus a hint for fixing a failure.
package verify

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/keshavgujrathi/scholariq/internal/cache"
	"github.com/keshavgujrathi/scholariq/internal/config"
	"github.com/keshavgujrathi/scholariq/internal/store"
)

// Check is the outcome of a single verification.
type Check struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	OK       bool   `json:"ok"`
	Detail   string `json:"detail,omitempty"`
	Hint     string `json:"hint,omitempty"`
}

// Report aggregates all checks. OK is true when every required check
// passed; optional failures do not affect it.
type Report struct {
	OK     bool    `json:"ok"`
	Checks []Check `json:"checks"`
}

// Verifier runs the environment checks. External lookups go through
// injectable seams so tests can substitute fakes.
type Verifier struct {
	cfg   *config.Config
	cache *cache.RedisCache

	lookPath  func(string) (string, error)
	goVersion func(ctx context.Context) (string, error)
	openStore func(ctx context.Context) (*store.Store, error)
}

// New builds a Verifier over the loaded configuration. rc may be nil when
// no result cache is configured.
func New(cfg *config.Config, rc *cache.RedisCache) *Verifier {
	v := &Verifier{
		cfg:      cfg,
		cache:    rc,
		lookPath: exec.LookPath,
	}
	v.goVersion = func(ctx context.Context) (string, error) {
		out, err := exec.CommandContext(ctx, "go", "version").Output()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(out)), nil
	}
	v.openStore = func(ctx context.Context) (*store.Store, error) {
		return store.Open(ctx, cfg.Database, cfg.App.Env)
	}
	return v
}

// Run executes every check concurrently and returns the report. The check
// order in the report is stable regardless of completion order.
func (v *Verifier) Run(ctx context.Context) *Report {
	checks := []func(context.Context) Check{
		v.checkGoToolchain,
		v.checkGit,
		v.checkPreCommit,
		v.checkEnvFile,
		v.checkEnvDir,
		v.checkManifests,
		v.checkUploadDir,
		v.checkDatabase,
		v.checkRedis,
	}

	results := make([]Check, len(checks))
	var g errgroup.Group
	for i, check := range checks {
		i, check := i, check
		g.Go(func() error {
			results[i] = check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{OK: true, Checks: results}
	for _, c := range results {
		if c.Required && !c.OK {
			report.OK = false
		}
	}
	return report
}

func (v *Verifier) checkGoToolchain(ctx context.Context) Check {
	c := Check{Name: "go toolchain", Required: true}
	if _, err := v.lookPath("go"); err != nil {
		c.Detail = "not found on PATH"
		c.Hint = "install Go " + v.cfg.Bootstrap.MinGoVersion + " or newer"
		return c
	}
	version, err := v.goVersion(ctx)
	if err != nil {
		c.Detail = fmt.Sprintf("version query failed: %v", err)
		return c
	}
	c.OK = true
	c.Detail = version
	return c
}

func (v *Verifier) checkGit(context.Context) Check {
	c := Check{Name: "git", Required: true}
	if _, err := v.lookPath("git"); err != nil {
		c.Detail = "not found on PATH"
		c.Hint = "install git"
		return c
	}
	c.OK = true
	return c
}

func (v *Verifier) checkPreCommit(context.Context) Check {
	c := Check{Name: "pre-commit"}
	if _, err := v.lookPath("pre-commit"); err != nil {
		c.Detail = "not found on PATH"
		c.Hint = "only needed for --dev setups"
		return c
	}
	c.OK = true
	return c
}

func (v *Verifier) checkEnvFile(context.Context) Check {
	c := Check{Name: "configuration file"}
	if _, err := os.Stat(v.cfg.Bootstrap.EnvFile); err != nil {
		c.Detail = v.cfg.Bootstrap.EnvFile + " missing"
		c.Hint = "run: scholariq setup"
		return c
	}
	c.OK = true
	c.Detail = v.cfg.Bootstrap.EnvFile
	return c
}

func (v *Verifier) checkEnvDir(context.Context) Check {
	c := Check{Name: "isolated environment"}
	dir := v.cfg.Bootstrap.EnvDir
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		c.Detail = dir + " missing"
		c.Hint = "run: scholariq setup"
		return c
	}
	if _, err := os.Stat(filepath.Join(dir, "devenv.json")); err != nil {
		c.Detail = dir + " exists but has no provisioning marker"
		c.Hint = "run: scholariq setup --force"
		return c
	}
	c.OK = true
	c.Detail = dir
	return c
}

func (v *Verifier) checkManifests(context.Context) Check {
	c := Check{Name: "tool manifest", Required: true}
	if _, err := os.Stat(v.cfg.Bootstrap.Manifest); err != nil {
		c.Detail = v.cfg.Bootstrap.Manifest + " missing"
		return c
	}
	c.OK = true
	c.Detail = v.cfg.Bootstrap.Manifest
	return c
}

func (v *Verifier) checkUploadDir(context.Context) Check {
	c := Check{Name: "upload directory", Required: true}
	dir := v.cfg.Upload.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.Detail = fmt.Sprintf("cannot create %s: %v", dir, err)
		return c
	}
	probe := filepath.Join(dir, ".write-probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		c.Detail = fmt.Sprintf("%s is not writable: %v", dir, err)
		c.Hint = "check directory permissions"
		return c
	}
	_ = os.Remove(probe)
	c.OK = true
	c.Detail = dir
	return c
}

func (v *Verifier) checkDatabase(ctx context.Context) Check {
	c := Check{Name: "database", Required: true}
	st, err := v.openStore(ctx)
	if err != nil {
		c.Detail = fmt.Sprintf("connect failed: %v", err)
		c.Hint = "check DATABASE_URL"
		return c
	}
	defer st.Close()

	ready, err := st.SchemaReady(ctx)
	if err != nil {
		c.Detail = fmt.Sprintf("schema query failed: %v", err)
		return c
	}
	if !ready {
		c.Detail = "reachable, schema missing"
		c.Hint = "run: scholariq db init"
		return c
	}
	c.OK = true
	c.Detail = "reachable, schema present"
	return c
}

func (v *Verifier) checkRedis(ctx context.Context) Check {
	c := Check{Name: "redis cache"}
	if v.cfg.Redis.Host == "" {
		c.OK = true
		c.Detail = "not configured (caching disabled)"
		return c
	}
	probe := v.cache.Probe(ctx)
	c.OK = probe.OK
	if probe.OK {
		c.Detail = fmt.Sprintf("reachable (%dms)", probe.LatencyMs)
	} else {
		c.Detail = probe.Error
		c.Hint = "check REDIS_HOST / REDIS_PORT"
	}
	return c
}

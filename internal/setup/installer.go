// Package setup installs the external analysis prerequisites by delegating
// to a package installer. It is a thin sequential wrapper: two installer
// invocations, first failure halts, exit status propagated untouched.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/planprobe/planprobe/pkg/logging"
)

// Config selects the installer and the two installation targets.
type Config struct {
	// Installer is the external package installer binary, e.g. "pip3".
	Installer string
	// Requirements is the path to the requirements declaration file.
	Requirements string
	// SourceURL is a version-control URL pinned to a specific branch, for the
	// one dependency whose stable distribution is not sufficient.
	SourceURL string
}

// DefaultConfig returns the fixed defaults the setup workflow uses when no
// configuration overrides them.
func DefaultConfig() Config {
	return Config{
		Installer:    "pip3",
		Requirements: "requirements.txt",
		SourceURL:    "git+https://github.com/mwaskom/seaborn.git@master",
	}
}

// InstallError is the single error kind for any non-zero installer exit.
type InstallError struct {
	Step     string // "requirements" or "source"
	Command  string
	ExitCode int
	Err      error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install %s failed (%s): exit %d", e.Step, e.Command, e.ExitCode)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the installer exit status from err so callers can
// propagate it as the process exit code. Returns 0 for nil and 1 for errors
// that carry no status (e.g. installer binary not found).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ierr *InstallError
	if errors.As(err, &ierr) && ierr.ExitCode > 0 {
		return ierr.ExitCode
	}
	return 1
}

// Installer runs the delegated installation sequence.
type Installer struct {
	cfg    Config
	log    *logging.Logger
	stdout io.Writer
	stderr io.Writer
}

// New creates an installer. Installer output streams pass through to the
// planprobe process streams; nothing is added or filtered.
func New(cfg Config, log *logging.Logger) *Installer {
	if cfg.Installer == "" {
		cfg.Installer = DefaultConfig().Installer
	}
	if cfg.Requirements == "" {
		cfg.Requirements = DefaultConfig().Requirements
	}
	if cfg.SourceURL == "" {
		cfg.SourceURL = DefaultConfig().SourceURL
	}
	return &Installer{
		cfg:    cfg,
		log:    log,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// SetOutput redirects the installer's pass-through streams.
func (i *Installer) SetOutput(stdout, stderr io.Writer) {
	i.stdout = stdout
	i.stderr = stderr
}

// Run executes the two installation operations in strict sequence. If the
// requirements install fails, the source install never runs.
func (i *Installer) Run(ctx context.Context) error {
	if err := i.installRequirements(ctx); err != nil {
		return err
	}
	return i.installSource(ctx)
}

func (i *Installer) installRequirements(ctx context.Context) error {
	i.log.Info("installing requirements", map[string]interface{}{
		"installer": i.cfg.Installer,
		"file":      i.cfg.Requirements,
	})
	return i.invoke(ctx, "requirements", "install", "-r", i.cfg.Requirements)
}

func (i *Installer) installSource(ctx context.Context) error {
	i.log.Info("installing pinned source package", map[string]interface{}{
		"installer": i.cfg.Installer,
		"url":       i.cfg.SourceURL,
	})
	return i.invoke(ctx, "source", "install", i.cfg.SourceURL)
}

func (i *Installer) invoke(ctx context.Context, step string, args ...string) error {
	cmd := exec.CommandContext(ctx, i.cfg.Installer, args...)
	cmd.Stdout = i.stdout
	cmd.Stderr = i.stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	ierr := &InstallError{
		Step:    step,
		Command: i.cfg.Installer + " " + strings.Join(args, " "),
		Err:     err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		ierr.ExitCode = exitErr.ExitCode()
	}
	return ierr
}

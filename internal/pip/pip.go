// Package pip hands non-upip-compatible specs to the real pip.
package pip

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/frederic-klein/minipip/internal/errs"
	"github.com/frederic-klein/minipip/internal/index"
)

// Runner runs the external pip process with the given arguments. It exists
// so the install logic can be tested without spawning real subprocesses.
type Runner interface {
	Run(args []string) error
}

// CommandRunner invokes "<python> -m pip". pip's own output goes straight to
// the user; stdin stays closed so pip can never block on a prompt.
type CommandRunner struct {
	Python string
}

func (r CommandRunner) Run(args []string) error {
	python := r.Python
	if python == "" {
		python = "python3"
	}
	cmd := exec.Command(python, append([]string{"-m", "pip"}, args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Installer installs specs with pip and cleans up afterwards.
type Installer struct {
	runner Runner
	logger *log.Logger
}

// NewInstaller creates an installer around the given runner.
func NewInstaller(runner Runner, logger *log.Logger) *Installer {
	return &Installer{runner: runner, logger: logger}
}

// Install upgrade-installs specs into targetDir using pip. The
// micropython.org index is dropped from indexURLs since pip cannot read its
// layout; having no index left is a configuration error. A non-zero pip
// exit propagates untouched — pip's own diagnostics are the error report.
// After a successful run, pip's *.dist-info bookkeeping directories are
// removed: the MicroPython runtime has no use for them.
func (i *Installer) Install(specs []string, targetDir string, indexURLs []string) error {
	var suitable []string
	for _, url := range indexURLs {
		if url != index.MicroPythonOrg {
			suitable = append(suitable, url)
		}
	}
	if len(suitable) == 0 {
		return errs.Userf("no suitable indexes for pip")
	}

	i.logger.Infof("Installing with pip: %v", specs)

	args := []string{
		"--no-input",
		"--no-color",
		"--disable-pip-version-check",
		"install",
		"--upgrade",
		"--target", targetDir,
		"--index-url", suitable[0],
	}
	for _, url := range suitable[1:] {
		args = append(args, "--extra-index-url", url)
	}
	args = append(args, specs...)

	if err := i.runner.Run(args); err != nil {
		return err
	}

	return removeDistInfo(targetDir)
}

func removeDistInfo(targetDir string) error {
	entries, err := os.ReadDir(targetDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasSuffix(entry.Name(), ".dist-info") {
			if err := os.RemoveAll(filepath.Join(targetDir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

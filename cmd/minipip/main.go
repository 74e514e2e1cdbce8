package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/frederic-klein/minipip/internal/archive"
	"github.com/frederic-klein/minipip/internal/config"
	"github.com/frederic-klein/minipip/internal/errs"
	"github.com/frederic-klein/minipip/internal/index"
	"github.com/frederic-klein/minipip/internal/pip"
	"github.com/frederic-klein/minipip/internal/reqfile"
	"github.com/frederic-klein/minipip/internal/resolver"
)

var (
	requirementFiles []string
	targetDir        string
	indexURL         string
	pythonExec       string
	verbose          bool
	quiet            bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "minipip",
		Short:         "Minimal package installer for MicroPython",
		Long:          "minipip installs upip-compatible packages by plain extraction and hands everything else over to pip.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	installCmd := &cobra.Command{
		Use:   "install package_spec...",
		Short: "Install packages into a target directory",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runInstall,
	}

	installCmd.Flags().StringArrayVarP(&requirementFiles, "requirement", "r", nil, "Install from the given requirements file (repeatable)")
	installCmd.Flags().StringVarP(&targetDir, "target", "t", "", "Target directory (default: current directory)")
	installCmd.Flags().StringVarP(&targetDir, "path", "p", "", "Alias for --target")
	installCmd.Flags().MarkHidden("path")
	installCmd.Flags().StringVarP(&indexURL, "index-url", "i", "", "Custom index URL")
	installCmd.Flags().StringVar(&pythonExec, "python", "", "Python interpreter used for the pip fallback")
	installCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show more details about the process")
	installCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Don't show non-error output")

	rootCmd.AddCommand(installCmd)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// pip already printed its diagnostics
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func runInstall(cmd *cobra.Command, args []string) error {
	if verbose && quiet {
		return errs.Userf("can't be quiet and verbose at the same time")
	}

	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	if quiet {
		level = log.ErrorLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level})

	cfg := &config.Config{}
	if path, err := config.DefaultPath(); err == nil {
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
	}

	specs := make([]string, 0, len(args))
	specs = append(specs, args...)
	for _, reqFile := range requirementFiles {
		fileSpecs, err := reqfile.Read(reqFile)
		if err != nil {
			return err
		}
		specs = append(specs, fileSpecs...)
	}

	indexURLs := index.DefaultURLs
	if len(cfg.IndexURLs) > 0 {
		indexURLs = cfg.IndexURLs
	}
	if indexURL != "" {
		indexURLs = []string{indexURL}
	}

	target := targetDir
	if target == "" {
		target = cfg.TargetDir
	}
	if target == "" {
		target = "."
	}

	python := pythonExec
	if python == "" {
		python = cfg.Python
	}

	progress := !quiet && isatty.IsTerminal(os.Stderr.Fd())

	res := resolver.New(
		index.NewClient(logger),
		archive.NewExtractor(logger, progress),
		logger,
	)

	pipSpecs, err := res.ResolveAndInstall(specs, target, indexURLs)
	if err != nil {
		return err
	}

	if len(pipSpecs) > 0 {
		installer := pip.NewInstaller(pip.CommandRunner{Python: python}, logger)
		return installer.Install(pipSpecs, target, indexURLs)
	}
	return nil
}

// Package resolver drives the install: it works through a queue of package
// specs, installs the upip-compatible ones by extraction and collects the
// rest for pip.
package resolver

import (
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/frederic-klein/minipip/internal/archive"
	"github.com/frederic-klein/minipip/internal/errs"
	"github.com/frederic-klein/minipip/internal/index"
	"github.com/frederic-klein/minipip/internal/pkgspec"
)

// tarballSuffix is the only asset form the lightweight path handles.
const tarballSuffix = ".tar.gz"

// Resolver resolves and installs package specs recursively.
type Resolver struct {
	index     *index.Client
	extractor *archive.Extractor
	logger    *log.Logger
}

// New creates a resolver around the given metadata client and extractor.
func New(idx *index.Client, ext *archive.Extractor, logger *log.Logger) *Resolver {
	return &Resolver{
		index:     idx,
		extractor: ext,
		logger:    logger,
	}
}

// ResolveAndInstall installs every upip-compatible spec (and, transitively,
// the dependencies its archives declare) into targetDir and returns the
// specs that must be handed to pip, in first-encountered order.
//
// Processing is breadth-first in pure enqueue order. Deduplication is by the
// raw spec string, not by package identity: "pkg" and "pkg>=1.0" are
// resolved independently even though they name the same package. That
// looseness is deliberate and callers may rely on it.
func (r *Resolver) ResolveAndInstall(specs []string, targetDir string, indexURLs []string) ([]string, error) {
	installed := make(map[string]bool)
	queuedForPip := make(map[string]bool)
	var pipSpecs []string

	queue := make([]string, len(specs))
	copy(queue, specs)
	pending := make(map[string]bool, len(specs))
	for _, s := range specs {
		pending[s] = true
	}

	for len(queue) > 0 {
		spec := queue[0]
		queue = queue[1:]
		delete(pending, spec)

		if installed[spec] || queuedForPip[spec] {
			continue
		}

		req, err := pkgspec.Parse(spec)
		if err != nil {
			return nil, errs.Userf("invalid requirement '%s'", spec)
		}

		r.logger.Infof("Processing '%s'", spec)
		meta, err := r.index.FetchMetadata(req, indexURLs)
		if err != nil {
			return nil, err
		}

		version := meta.Info.Version
		r.logger.Infof("Inspecting version %s", version)
		assets := meta.Releases[version]

		if len(assets) != 1 || !strings.HasSuffix(assets[0].URL, tarballSuffix) {
			r.logger.Infof("'%s' will be installed with pip (not having single tar.gz asset)", req.Name)
			pipSpecs = append(pipSpecs, spec)
			queuedForPip[spec] = true
			continue
		}

		deps, err := r.extractor.InstallFromURL(req.Name, assets[0].URL, targetDir)
		if errors.Is(err, archive.ErrNotCompatible) {
			pipSpecs = append(pipSpecs, spec)
			queuedForPip[spec] = true
			continue
		}
		if err != nil {
			return nil, err
		}

		installed[spec] = true
		if len(deps) > 0 {
			r.logger.Infof("Dependencies of '%s': %v", spec, deps)
		}
		for _, dep := range deps {
			if !installed[dep] && !pending[dep] {
				queue = append(queue, dep)
				pending[dep] = true
			}
		}
	}

	return pipSpecs, nil
}

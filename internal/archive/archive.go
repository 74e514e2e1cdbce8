// Package archive installs upip-compatible release tarballs.
//
// A tarball is upip compatible when it needs no build step: it is downloaded
// whole, every entry is inspected, and only after the entire archive passes
// inspection are any files written under the target directory. Discovering a
// setup.py anywhere under the distribution root rejects the archive before a
// single byte reaches disk.
package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"
	"github.com/schollz/progressbar/v3"
)

// ErrNotCompatible signals that a package cannot be installed by plain
// extraction and must go to pip. It is an internal routing signal, not a
// failure.
var ErrNotCompatible = errors.New("package is not upip compatible")

// Extractor downloads and installs upip-compatible tarballs.
type Extractor struct {
	client   *http.Client
	logger   *log.Logger
	progress bool
}

// NewExtractor creates an extractor. With progress enabled, archive
// downloads render a byte progress bar on stderr.
func NewExtractor(logger *log.Logger, progress bool) *Extractor {
	return &Extractor{
		client:   &http.Client{},
		logger:   logger,
		progress: progress,
	}
}

// InstallFromURL downloads the release tarball at url and installs it under
// targetDir. It returns the dependency specs declared in the archive's
// requires.txt, or ErrNotCompatible if the package needs a build step.
func (e *Extractor) InstallFromURL(projectName, url, targetDir string) ([]string, error) {
	data, err := e.download(projectName, url)
	if err != nil {
		return nil, err
	}

	deps, err := e.Install(projectName, data, targetDir)
	if err != nil {
		return nil, err
	}

	absTarget, absErr := filepath.Abs(targetDir)
	if absErr != nil {
		absTarget = targetDir
	}
	e.logger.Infof("Extracted '%s' from %s to %s", projectName, url, absTarget)
	return deps, nil
}

// Install inspects an in-memory tarball and, if it is upip compatible,
// commits its contents under targetDir. Inspection and commit are strictly
// two-phase: nothing is written until the whole archive has been walked.
func (e *Extractor) Install(projectName string, data []byte, targetDir string) ([]string, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompressing '%s': %w", projectName, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)

	var deps []string
	ws := newWriteSet()

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive of '%s': %w", projectName, err)
		}

		// Entries live under a single distribution root directory; paths are
		// taken relative to it.
		var rel string
		if i := strings.Index(hdr.Name, "/"); i >= 0 {
			rel = hdr.Name[i+1:]
		}

		if rel == "setup.py" {
			e.logger.Debugf("'%s' contains setup.py, deferring to pip", projectName)
			return nil, ErrNotCompatible
		}

		if strings.Contains(rel, ".egg-info/PKG-INFO") {
			continue
		}

		if strings.Contains(rel, ".egg-info/requires.txt") {
			reqs, err := readRequires(tr)
			if err != nil {
				return nil, fmt.Errorf("reading requires.txt of '%s': %w", projectName, err)
			}
			deps = append(deps, reqs...)
			continue
		}

		if strings.Contains(rel, ".egg-info") {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			ws.addDir(filepath.Join(targetDir, rel))
		case tar.TypeReg:
			content, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("reading %s from '%s': %w", hdr.Name, projectName, err)
			}
			ws.addFile(filepath.Join(targetDir, rel), content)
		}
	}

	if err := ws.flush(); err != nil {
		return nil, fmt.Errorf("installing '%s': %w", projectName, err)
	}
	return deps, nil
}

// download fetches the whole archive into memory. Streaming extraction would
// break the validate-then-commit invariant.
func (e *Extractor) download(projectName, url string) ([]byte, error) {
	resp, err := e.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s: HTTP %d", url, resp.StatusCode)
	}

	var buf bytes.Buffer
	var dst io.Writer = &buf
	if e.progress {
		bar := progressbar.DefaultBytes(resp.ContentLength, projectName)
		dst = io.MultiWriter(&buf, bar)
	}
	if _, err := io.Copy(dst, resp.Body); err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	return buf.Bytes(), nil
}

// readRequires collects the dependency specs from a requires.txt entry,
// skipping blank and comment lines.
func readRequires(r io.Reader) ([]string, error) {
	var specs []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		specs = append(specs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return specs, nil
}

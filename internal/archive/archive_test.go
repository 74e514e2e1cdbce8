package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

type tarEntry struct {
	name    string
	content string
	dir     bool
}

func createTestTarball(t *testing.T, entries []tarEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	for _, e := range entries {
		hdr := &tar.Header{
			Name: e.name,
			Mode: 0644,
		}
		if e.dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.content))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if !e.dir {
			if _, err := tw.Write([]byte(e.content)); err != nil {
				t.Fatal(err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testExtractor() *Extractor {
	return NewExtractor(log.New(io.Discard), false)
}

func TestExtractor_Install(t *testing.T) {
	// Arrange
	data := createTestTarball(t, []tarEntry{
		{name: "pkg-1.0", dir: true},
		{name: "pkg-1.0/pkg", dir: true},
		{name: "pkg-1.0/pkg/__init__.py", content: "VERSION = '1.0'\n"},
		{name: "pkg-1.0/pkg/util.py", content: "def helper(): pass\n"},
		{name: "pkg-1.0/pkg.egg-info/PKG-INFO", content: "Metadata-Version: 1.1\n"},
		{name: "pkg-1.0/pkg.egg-info/requires.txt", content: "micropython-dep\n\n# a comment\nother-dep>=0.2\n"},
		{name: "pkg-1.0/pkg.egg-info/SOURCES.txt", content: "setup.py\n"},
	})
	targetDir := t.TempDir()

	// Act
	deps, err := testExtractor().Install("pkg", data, targetDir)

	// Assert
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	wantDeps := []string{"micropython-dep", "other-dep>=0.2"}
	if len(deps) != len(wantDeps) {
		t.Fatalf("got deps %v, want %v", deps, wantDeps)
	}
	for i, d := range deps {
		if d != wantDeps[i] {
			t.Errorf("deps[%d] = %q, want %q", i, d, wantDeps[i])
		}
	}

	content, err := os.ReadFile(filepath.Join(targetDir, "pkg", "__init__.py"))
	if err != nil {
		t.Fatalf("reading installed file: %v", err)
	}
	if string(content) != "VERSION = '1.0'\n" {
		t.Errorf("installed content = %q", content)
	}

	if _, err := os.Stat(filepath.Join(targetDir, "pkg", "util.py")); err != nil {
		t.Errorf("pkg/util.py not installed: %v", err)
	}

	// Nothing from .egg-info may be staged.
	if _, err := os.Stat(filepath.Join(targetDir, "pkg.egg-info")); !os.IsNotExist(err) {
		t.Error("pkg.egg-info should not be installed")
	}
}

func TestExtractor_Install_RejectsSetupPy(t *testing.T) {
	// Arrange: setup.py is the last entry, so every earlier entry has already
	// been staged when the rejection hits. None of it may reach disk.
	data := createTestTarball(t, []tarEntry{
		{name: "pkg-1.0/pkg/__init__.py", content: "x = 1\n"},
		{name: "pkg-1.0/pkg/big.py", content: "y = 2\n"},
		{name: "pkg-1.0/setup.py", content: "from setuptools import setup\n"},
	})
	targetDir := t.TempDir()

	// Act
	_, err := testExtractor().Install("pkg", data, targetDir)

	// Assert
	if !errors.Is(err, ErrNotCompatible) {
		t.Fatalf("Install() error = %v, want ErrNotCompatible", err)
	}

	dirEntries, readErr := os.ReadDir(targetDir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(dirEntries) != 0 {
		t.Errorf("target dir not empty after rejection: %v", dirEntries)
	}
}

func TestExtractor_Install_NestedSetupPyAllowed(t *testing.T) {
	// Only a root-level setup.py rejects; one nested deeper is plain data.
	data := createTestTarball(t, []tarEntry{
		{name: "pkg-1.0/examples/setup.py", content: "# sample\n"},
	})
	targetDir := t.TempDir()

	_, err := testExtractor().Install("pkg", data, targetDir)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(targetDir, "examples", "setup.py")); err != nil {
		t.Errorf("examples/setup.py not installed: %v", err)
	}
}

func TestExtractor_Install_NoDeps(t *testing.T) {
	data := createTestTarball(t, []tarEntry{
		{name: "pkg-1.0/pkg.py", content: "pass\n"},
	})

	deps, err := testExtractor().Install("pkg", data, t.TempDir())
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("deps = %v, want none", deps)
	}
}

func TestExtractor_Install_BadArchive(t *testing.T) {
	_, err := testExtractor().Install("pkg", []byte("not a tarball"), t.TempDir())
	if err == nil {
		t.Error("Install() should fail on garbage input")
	}
}

func TestExtractor_InstallFromURL(t *testing.T) {
	// Arrange
	data := createTestTarball(t, []tarEntry{
		{name: "pkg-1.0/pkg.py", content: "pass\n"},
		{name: "pkg-1.0/pkg.egg-info/requires.txt", content: "dep-a\n"},
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer server.Close()
	targetDir := t.TempDir()

	// Act
	deps, err := testExtractor().InstallFromURL("pkg", server.URL+"/pkg-1.0.tar.gz", targetDir)

	// Assert
	if err != nil {
		t.Fatalf("InstallFromURL() error = %v", err)
	}
	if len(deps) != 1 || deps[0] != "dep-a" {
		t.Errorf("deps = %v, want [dep-a]", deps)
	}
	if _, err := os.Stat(filepath.Join(targetDir, "pkg.py")); err != nil {
		t.Errorf("pkg.py not installed: %v", err)
	}
}

func TestExtractor_InstallFromURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testExtractor().InstallFromURL("pkg", server.URL+"/pkg.tar.gz", t.TempDir())
	if err == nil {
		t.Error("InstallFromURL() should fail on HTTP 500")
	}
}

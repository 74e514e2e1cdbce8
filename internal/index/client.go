// Package index queries package indexes for release metadata.
//
// An index is an HTTP service in the pypi.org JSON layout: GET
// {index}/{name}/json returns the package's main document and GET
// {index}/{name}/{version}/json a version-specific one. The micropython.org
// index serves only the main document.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/frederic-klein/minipip/internal/errs"
	"github.com/frederic-klein/minipip/internal/pkgspec"
)

// MicroPythonOrg is the upip-only index. It is queried first by default and
// is never handed to pip, which does not understand its layout.
const MicroPythonOrg = "https://micropython.org/pi"

// DefaultURLs is the index list used when the caller supplies none.
var DefaultURLs = []string{MicroPythonOrg, "https://pypi.org/pypi"}

// Asset is one downloadable artifact of a release.
type Asset struct {
	URL string `json:"url"`
}

// Metadata is a package's index document: the index's notion of the current
// version plus all releases and their assets.
type Metadata struct {
	Info     Info               `json:"info"`
	Releases map[string][]Asset `json:"releases"`
}

// Info carries the index's "current" version for the package.
type Info struct {
	Version string `json:"version"`
}

// errNotFound marks a 404 from an index: the package is simply absent there
// and resolution moves on to the next index.
var errNotFound = errors.New("not found")

// Client fetches package metadata from indexes.
type Client struct {
	client *http.Client
	logger *log.Logger
}

// NewClient creates a metadata client.
func NewClient(logger *log.Logger) *Client {
	return &Client{
		client: &http.Client{},
		logger: logger,
	}
}

// FetchMetadata queries the indexes in order and returns the metadata
// document for the best version matching req. The returned document's
// Info.Version is the resolved version.
//
// A 404 means "not on this index" and falls through to the next one. Any
// other transport failure aborts immediately. If no index has a matching
// version the error is a UserError naming the requirement and the indexes.
func (c *Client) FetchMetadata(req pkgspec.Requirement, indexURLs []string) (*Metadata, error) {
	for _, indexURL := range indexURLs {
		base := strings.TrimSuffix(indexURL, "/")

		url := fmt.Sprintf("%s/%s/json", base, req.Name)
		c.logger.Infof("Querying package metadata from %s", url)
		meta, err := c.fetchJSON(url)
		if errors.Is(err, errNotFound) {
			c.logger.Infof("Could not find '%s' from %s", req.Name, indexURL)
			continue
		}
		if err != nil {
			return nil, err
		}

		// An unconstrained requirement adopts this index's current version.
		effective := req
		if len(effective.Constraints) == 0 {
			effective.Constraints = []pkgspec.Constraint{{Op: "==", Version: meta.Info.Version}}
		}

		ver, ok := ResolveVersion(effective, meta)
		if !ok {
			c.logger.Infof("Could not find suitable version from %s", indexURL)
			continue
		}

		if ver == meta.Info.Version {
			// The main document already describes the resolved version, so a
			// second fetch is pointless (and micropython.org has nothing else).
			c.logger.Infof("Found '%s' from %s", req.Raw, indexURL)
			return meta, nil
		}

		url = fmt.Sprintf("%s/%s/%s/json", base, req.Name, ver)
		c.logger.Debugf("Querying version metadata from %s", url)
		verMeta, err := c.fetchJSON(url)
		if errors.Is(err, errNotFound) {
			c.logger.Infof("Could not find '%s' from %s", req.Name, indexURL)
			continue
		}
		if err != nil {
			return nil, err
		}
		c.logger.Infof("Found '%s' from %s", req.Raw, indexURL)
		return verMeta, nil
	}

	return nil, errs.Userf("could not find '%s' from any of the indexes %v", req.Name, indexURLs)
}

func (c *Client) fetchJSON(url string) (*Metadata, error) {
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("querying %s: HTTP %d", url, resp.StatusCode)
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("parsing metadata from %s: %w", url, err)
	}
	return &meta, nil
}

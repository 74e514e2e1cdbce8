package index

import "github.com/frederic-klein/minipip/internal/pkgspec"

// ResolveVersion selects the highest version in meta that satisfies req and
// has at least one release asset. Versions without assets are placeholders
// some indexes keep around and never installable.
func ResolveVersion(req pkgspec.Requirement, meta *Metadata) (string, bool) {
	var best string
	for ver, assets := range meta.Releases {
		if len(assets) == 0 {
			continue
		}
		if !req.Matches(ver) {
			continue
		}
		if best == "" {
			best = ver
			continue
		}
		// Map iteration order is random; ties (e.g. "1.0" vs "1.0.0") need a
		// stable winner or the same document would resolve differently on
		// every call.
		switch cmp := pkgspec.Compare(ver, best); {
		case cmp > 0:
			best = ver
		case cmp == 0 && ver > best:
			best = ver
		}
	}
	return best, best != ""
}

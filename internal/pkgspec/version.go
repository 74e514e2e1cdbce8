package pkgspec

import (
	"regexp"
	"strconv"
	"strings"
)

// Release phases in precedence order. A plain release sorts above its
// pre-releases and below its post-releases: 1.0.dev1 < 1.0a1 < 1.0b2 <
// 1.0rc1 < 1.0 < 1.0.post1.
const (
	phaseDev   = -4
	phaseAlpha = -3
	phaseBeta  = -2
	phaseRC    = -1
	phaseFinal = 0
	phasePost  = 1
)

type version struct {
	release []int
	phase   int
	num     int
}

var versionRe = regexp.MustCompile(`^v?(\d+(?:\.\d+)*)(?:\.?([a-z]+)\.?(\d*))?`)

// Compare orders two version strings by release-segment precedence with
// pre/post-release handling. Returns -1, 0 or 1.
func Compare(a, b string) int {
	av := parseVersion(a)
	bv := parseVersion(b)

	maxLen := len(av.release)
	if len(bv.release) > maxLen {
		maxLen = len(bv.release)
	}
	for i := 0; i < maxLen; i++ {
		var an, bn int
		if i < len(av.release) {
			an = av.release[i]
		}
		if i < len(bv.release) {
			bn = bv.release[i]
		}
		if an != bn {
			return sign(an - bn)
		}
	}

	if av.phase != bv.phase {
		return sign(av.phase - bv.phase)
	}
	return sign(av.num - bv.num)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// parseVersion splits a version string into numeric release segments and an
// optional phase suffix. Unrecognized suffixes are ranked as pre-releases so
// that oddly tagged versions never win over a plain release.
func parseVersion(v string) version {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.ReplaceAll(v, "-", ".")
	v = strings.ReplaceAll(v, "_", ".")

	m := versionRe.FindStringSubmatch(v)
	if m == nil {
		return version{release: []int{0}, phase: phaseAlpha}
	}

	parts := strings.Split(m[1], ".")
	release := make([]int, len(parts))
	for i, p := range parts {
		release[i], _ = strconv.Atoi(p)
	}

	ver := version{release: release, phase: phaseFinal}
	if m[2] != "" {
		ver.phase = parsePhase(m[2])
		ver.num, _ = strconv.Atoi(m[3])
	}
	// Anything left over after the recognized suffix means the version is
	// stranger than a plain pre/post tag; never rank it above a release.
	if len(m[0]) < len(v) && ver.phase == phaseFinal {
		ver.phase = phaseAlpha
	}
	return ver
}

func parsePhase(s string) int {
	switch s {
	case "dev":
		return phaseDev
	case "a", "alpha":
		return phaseAlpha
	case "b", "beta":
		return phaseBeta
	case "c", "rc", "pre", "preview":
		return phaseRC
	case "post", "r", "rev":
		return phasePost
	default:
		return phaseAlpha
	}
}

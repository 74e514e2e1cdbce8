// Package pkgspec parses textual package requirements such as
// "micropython-os>=0.6" and compares Python-style version strings.
package pkgspec

import (
	"fmt"
	"regexp"
	"strings"
)

// Constraint is a single version clause of a requirement, e.g. ">=" "1.2".
type Constraint struct {
	Op      string
	Version string
}

// Requirement is a parsed package spec: a project name plus zero or more
// version constraints. Raw preserves the spec string exactly as given,
// because the resolver dedups on it.
type Requirement struct {
	Name        string
	Constraints []Constraint
	Raw         string
}

var (
	nameRe   = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)\s*(\[[^\]]*\])?\s*(.*)$`)
	clauseRe = regexp.MustCompile(`^(===|==|!=|>=|<=|~=|>|<)\s*([A-Za-z0-9._+!*-]+)\s*$`)
)

// Parse parses a requirement spec. Extras ("pkg[extra]") are accepted but
// ignored; constraint clauses are comma separated.
func Parse(spec string) (Requirement, error) {
	m := nameRe.FindStringSubmatch(spec)
	if m == nil || m[1] == "" {
		return Requirement{}, fmt.Errorf("invalid requirement %q", spec)
	}

	req := Requirement{Name: m[1], Raw: spec}

	rest := strings.TrimSpace(m[3])
	if rest == "" {
		return req, nil
	}

	for _, clause := range strings.Split(rest, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		cm := clauseRe.FindStringSubmatch(clause)
		if cm == nil {
			return Requirement{}, fmt.Errorf("invalid version clause %q in %q", clause, spec)
		}
		op := cm[1]
		if op == "===" {
			op = "=="
		}
		req.Constraints = append(req.Constraints, Constraint{Op: op, Version: cm[2]})
	}

	return req, nil
}

// Matches reports whether version satisfies all constraint clauses.
// A requirement without constraints matches any version.
func (r Requirement) Matches(version string) bool {
	for _, c := range r.Constraints {
		if !matchesOne(version, c) {
			return false
		}
	}
	return true
}

func (r Requirement) String() string {
	return r.Raw
}

func matchesOne(have string, c Constraint) bool {
	if c.Op == "~=" {
		// Compatible release: >=X.Y.Z with the leading release segments fixed.
		if Compare(have, c.Version) < 0 {
			return false
		}
		return sharesPrefix(have, c.Version)
	}

	cmp := Compare(have, c.Version)
	switch c.Op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	}
	return false
}

// sharesPrefix reports whether have's release starts with want's release
// truncated by one segment, per the compatible-release rule.
func sharesPrefix(have, want string) bool {
	hv := parseVersion(have)
	wv := parseVersion(want)
	if len(wv.release) < 2 {
		return true
	}
	prefix := wv.release[:len(wv.release)-1]
	for i, n := range prefix {
		if i >= len(hv.release) || hv.release[i] != n {
			return false
		}
	}
	return true
}

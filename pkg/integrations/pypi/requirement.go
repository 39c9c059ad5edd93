package pypi

import (
	"regexp"
	"strings"

	"github.com/matzehuels/reqgraph/pkg/integrations"
)

// Requirement is the part of a PEP 508 dependency specifier this tool
// needs.
type Requirement struct {
	Name   string   // PEP 503 normalized
	Extras []string // requested extras, e.g. [socks]
	Marker string   // environment marker after ';', trimmed
}

var (
	nameRE   = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	pep508RE = regexp.MustCompile(`^\s*([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*(?:\[([^\]]*)\])?\s*(?:\(?\s*(?:(?:===|==|!=|<=|>=|~=|<|>)\s*[^;,()\s]+\s*,?\s*)+\)?|@\s*\S+)?\s*(?:;\s*(.*))?$`)
	extraRE  = regexp.MustCompile(`\bextra\b`)
)

const fallbackDelimiters = " ;()[<>=!~,"

// ParseRequirement extracts the distribution name from a requirement
// string. Well-formed PEP 508 specifiers are parsed fully; anything else is
// cut at the first delimiter and accepted only if what remains is a valid
// name.
func ParseRequirement(s string) (Requirement, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Requirement{}, false
	}
	if m := pep508RE.FindStringSubmatch(s); m != nil {
		req := Requirement{
			Name:   integrations.NormalizePkgName(m[1]),
			Marker: strings.TrimSpace(m[3]),
		}
		for _, e := range strings.Split(m[2], ",") {
			if e = strings.TrimSpace(e); e != "" {
				req.Extras = append(req.Extras, e)
			}
		}
		return req, true
	}

	name := s
	if i := strings.IndexAny(s, fallbackDelimiters); i >= 0 {
		name = s[:i]
	}
	if !nameRE.MatchString(name) {
		return Requirement{}, false
	}
	req := Requirement{Name: integrations.NormalizePkgName(name)}
	if _, marker, ok := strings.Cut(s, ";"); ok {
		req.Marker = strings.TrimSpace(marker)
	}
	return req, true
}

// HasExtraMarker reports whether the requirement only applies when an
// optional extra is requested.
func (r Requirement) HasExtraMarker() bool {
	return extraRE.MatchString(r.Marker)
}

package matrix

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ZoneTable is the versioned label → code lookup table injected into the resolver
type ZoneTable struct {
	Version string `yaml:"version"`

	// Known is the complete set of output codes. Every other field must stay inside it.
	Known []Code `yaml:"known"`

	// Primary is the fixed column group placed right after the date column
	Primary []Code `yaml:"primary"`

	// Zones maps a zone label ("Zone A", "BE_NL") to its code
	Zones map[string]Code `yaml:"zones"`

	Corsica CorsicaRule `yaml:"corsica"`

	// LetterFallback maps "zone <letter>" to fr_zone_<letter> when no entry in Zones matches
	LetterFallback bool `yaml:"letter_fallback"`
}

// CorsicaRule adds Code to any record whose academy label contains Marker
type CorsicaRule struct {
	Marker string `yaml:"marker"`
	Code   Code   `yaml:"code"`
}

// Validate checks that every code the table can produce is part of Known
func (t ZoneTable) Validate() error {
	if len(t.Known) == 0 {
		return fmt.Errorf("%w: no known codes", ErrInvalidTable)
	}

	known := make(map[Code]struct{}, len(t.Known))
	for _, c := range t.Known {
		if strings.TrimSpace(string(c)) == "" {
			return fmt.Errorf("%w: empty code in known set", ErrInvalidTable)
		}
		if _, dup := known[c]; dup {
			return fmt.Errorf("%w: duplicate known code %s", ErrInvalidTable, c)
		}
		known[c] = struct{}{}
	}

	seen := make(map[Code]struct{}, len(t.Primary))
	for _, c := range t.Primary {
		if _, ok := known[c]; !ok {
			return fmt.Errorf("%w: primary code %s is not a known code", ErrInvalidTable, c)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: duplicate primary code %s", ErrInvalidTable, c)
		}
		seen[c] = struct{}{}
	}

	folded := make(map[string]string, len(t.Zones))
	for label, c := range t.Zones {
		key := Fold(label)
		if key == "" {
			return fmt.Errorf("%w: empty zone label", ErrInvalidTable)
		}
		if _, ok := known[c]; !ok {
			return fmt.Errorf("%w: label %q maps to %s", ErrUnknownCode, label, c)
		}
		if prev, dup := folded[key]; dup && t.Zones[prev] != c {
			return fmt.Errorf("%w: labels %q and %q collide with different codes", ErrInvalidTable, prev, label)
		}
		folded[key] = label
	}

	if t.Corsica.Marker != "" {
		if _, ok := known[t.Corsica.Code]; !ok {
			return fmt.Errorf("%w: corsica code %q", ErrUnknownCode, t.Corsica.Code)
		}
	}

	return nil
}

// Resolver maps a record's zone and academy labels to output codes
type Resolver struct {
	labels   map[string]Code
	known    map[Code]struct{}
	marker   string
	corsica  Code
	fallback bool
}

// NewResolver validates the table and builds a resolver from it
func NewResolver(t ZoneTable) (*Resolver, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	r := &Resolver{
		labels:   make(map[string]Code, len(t.Zones)),
		known:    make(map[Code]struct{}, len(t.Known)),
		marker:   Fold(t.Corsica.Marker),
		corsica:  t.Corsica.Code,
		fallback: t.LetterFallback,
	}
	for label, c := range t.Zones {
		r.labels[Fold(label)] = c
	}
	for _, c := range t.Known {
		r.known[c] = struct{}{}
	}
	return r, nil
}

// Resolve returns zero, one or two codes for the given labels.
// The zone code and the Corsica code are independent; both may be returned.
// An empty result means the record is unrelated to any tracked zone.
func (r *Resolver) Resolve(zoneLabel, academyLabel string) ([]Code, error) {
	var codes []Code

	zone := Fold(zoneLabel)
	if c, ok := r.labels[zone]; ok {
		codes = append(codes, c)
	} else if c, ok := letterCode(zone); ok && r.fallback {
		if _, known := r.known[c]; !known {
			return nil, fmt.Errorf("%w: %s (from zone label %q)", ErrUnknownCode, c, zoneLabel)
		}
		codes = append(codes, c)
	}

	if r.marker != "" && strings.Contains(Fold(academyLabel), r.marker) {
		if len(codes) == 0 || codes[0] != r.corsica {
			codes = append(codes, r.corsica)
		}
	}

	return codes, nil
}

// letterCode turns "zone x" into fr_zone_x
func letterCode(folded string) (Code, bool) {
	rest, ok := strings.CutPrefix(folded, "zone ")
	if !ok || len(rest) != 1 || rest[0] < 'a' || rest[0] > 'z' {
		return "", false
	}
	return Code("fr_zone_" + rest), true
}

// Fold normalizes free text for matching: accents stripped, lower case, single spaces
func Fold(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

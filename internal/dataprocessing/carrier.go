package dataprocessing

import (
	"fmt"
	"sort"
	"strings"
)

// loosePunctuation removes the punctuation carriers are written with inconsistently.
var loosePunctuation = strings.NewReplacer(".", "", ",", "", "&", " AND ")

// CarrierCanonicalizer maps spelling variants of carrier names onto one canonical name.
type CarrierCanonicalizer struct {
	aliases map[string]string // cleaned variant -> canonical
	loose   bool
}

// NewCarrierCanonicalizer builds a canonicalizer from a variant -> canonical table.
// Variant keys are cleaned before registration and every canonical name is
// registered as an alias of itself. Two canonical names that clean to the same
// key, or a variant claimed by two canonical names, are rejected.
func NewCarrierCanonicalizer(aliases map[string]string, loose bool) (*CarrierCanonicalizer, error) {
	c := &CarrierCanonicalizer{
		aliases: make(map[string]string, 2*len(aliases)),
		loose:   loose,
	}

	variants := make([]string, 0, len(aliases))
	for variant := range aliases {
		variants = append(variants, variant)
	}
	sort.Strings(variants)

	canonicals := make([]string, 0, len(aliases))
	seen := make(map[string]bool)
	for _, variant := range variants {
		canonical := aliases[variant]
		if !seen[canonical] {
			seen[canonical] = true
			canonicals = append(canonicals, canonical)
		}
	}

	for _, canonical := range canonicals {
		key := c.Clean(canonical)
		if key == "" {
			return nil, fmt.Errorf("carrier alias table: empty canonical name")
		}
		if other, ok := c.aliases[key]; ok && other != canonical {
			return nil, fmt.Errorf("carrier alias table: canonical names %q and %q are indistinguishable", other, canonical)
		}
		c.aliases[key] = canonical
	}

	for _, variant := range variants {
		canonical := aliases[variant]
		key := c.Clean(variant)
		if key == "" {
			return nil, fmt.Errorf("carrier alias table: empty variant for %q", canonical)
		}
		if other, ok := c.aliases[key]; ok && other != canonical {
			return nil, fmt.Errorf("carrier alias table: variant %q maps to both %q and %q", variant, other, canonical)
		}
		c.aliases[key] = canonical
	}

	return c, nil
}

// Clean trims, uppercases and collapses runs of Unicode white space, including
// the non-breaking spaces spreadsheets leave behind. In loose mode periods and
// commas are also removed and "&" is spelled " AND ".
func (c *CarrierCanonicalizer) Clean(name string) string {
	s := strings.ToUpper(name)
	if c.loose {
		s = loosePunctuation.Replace(s)
	}
	return strings.Join(strings.Fields(s), " ")
}

// Canonicalize returns the canonical name for a known variant and the cleaned
// name otherwise. It never fails and is idempotent.
func (c *CarrierCanonicalizer) Canonicalize(name string) string {
	key := c.Clean(name)
	if canonical, ok := c.aliases[key]; ok {
		return canonical
	}
	return key
}

// Len returns the number of registered keys.
func (c *CarrierCanonicalizer) Len() int {
	return len(c.aliases)
}

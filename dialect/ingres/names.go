package ingres

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NameCase is the identifier case policy applied between the catalog and
// callers.
type NameCase uint8

const (
	// NameCaseLower reports names in lower case. Catalog names are stored
	// in lower case, so normalization only trims padding.
	NameCaseLower NameCase = iota
	// NameCaseUpper serves servers created with upper-case regular
	// identifiers. All-upper names are reported in lower case and
	// all-lower names are sent in upper case.
	NameCaseUpper
	// NameCasePreserve leaves names untouched apart from padding.
	NameCasePreserve
	// NameCaseAuto picks Lower or Upper from the DB_NAME_CASE capability.
	NameCaseAuto
)

// String implements fmt.Stringer.
func (c NameCase) String() string {
	switch c {
	case NameCaseLower:
		return "lower"
	case NameCaseUpper:
		return "upper"
	case NameCasePreserve:
		return "preserve"
	case NameCaseAuto:
		return "auto"
	default:
		return fmt.Sprintf("NameCase(%d)", c)
	}
}

// ParseNameCase parses the textual form of a NameCase.
func ParseNameCase(s string) (NameCase, error) {
	switch strings.ToLower(s) {
	case "", "lower":
		return NameCaseLower, nil
	case "upper":
		return NameCaseUpper, nil
	case "preserve":
		return NameCasePreserve, nil
	case "auto":
		return NameCaseAuto, nil
	default:
		return 0, fmt.Errorf("dialect/ingres: unknown name case %q", s)
	}
}

// effectiveNameCase resolves NameCaseAuto against the capability snapshot. Without
// a snapshot it falls back to the lower-case policy.
func (d *Dialect) effectiveNameCase() NameCase {
	if d.nameCase != NameCaseAuto {
		return d.nameCase
	}
	caps, err := d.Capabilities()
	if err != nil {
		return NameCaseLower
	}
	if v, _ := caps.Lookup(CapNameCase); strings.EqualFold(v, "UPPER") {
		return NameCaseUpper
	}
	return NameCaseLower
}

// Normalize converts a catalog name to the caller's form. Catalog names
// are blank padded.
func (d *Dialect) Normalize(name string) string {
	name = strings.TrimRight(name, " ")
	if name == "" || d.effectiveNameCase() != NameCaseUpper {
		return name
	}
	if isUpper(name) {
		return cases.Lower(language.Und).String(name)
	}
	return name
}

// Denormalize converts a caller name to the catalog form before binding.
func (d *Dialect) Denormalize(name string) string {
	if name == "" || d.effectiveNameCase() != NameCaseUpper {
		return name
	}
	if isLower(name) {
		return cases.Upper(language.Und).String(name)
	}
	return name
}

func isUpper(s string) bool {
	return s == cases.Upper(language.Und).String(s) && s != cases.Lower(language.Und).String(s)
}

func isLower(s string) bool {
	return s == cases.Lower(language.Und).String(s) && s != cases.Upper(language.Und).String(s)
}

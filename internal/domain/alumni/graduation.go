package alumni

import (
	"fmt"
	"strconv"
	"strings"
)

// GraduationSentinel is the short form the web client sends for non-graduates.
const GraduationSentinel = "did-not-graduate"

// Years are four digits. Anything else, including the -1 stored for
// non-graduates, is not a year.
const (
	minYear = 1000
	maxYear = 9999
)

// Graduation is either Graduated(year) or DidNotGraduate.
type Graduation struct {
	year      int
	graduated bool
}

func Graduated(year int) Graduation { return Graduation{year: year, graduated: true} }

func DidNotGraduate() Graduation { return Graduation{} }

// ParseGraduation reads the free-text graduation year stored on requests and
// badges. Any text containing "did not graduate" (case-insensitive) or the
// sentinel is DidNotGraduate; everything else must be a four-digit year.
func ParseGraduation(raw string) (Graduation, error) {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	if lower == GraduationSentinel || strings.Contains(lower, "did not graduate") {
		return DidNotGraduate(), nil
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < minYear || year > maxYear {
		return Graduation{}, fmt.Errorf("graduation year %q is neither a year nor a did-not-graduate statement", raw)
	}
	return Graduated(year), nil
}

func (g Graduation) IsGraduated() bool { return g.graduated }

// Year returns the graduation year and false for DidNotGraduate.
func (g Graduation) Year() (int, bool) { return g.year, g.graduated }

// StudentYear is the value written to students.graduation_year.
func (g Graduation) StudentYear() int {
	if !g.graduated {
		return DidNotGraduateYear
	}
	return g.year
}

func (g Graduation) String() string {
	if !g.graduated {
		return GraduationSentinel
	}
	return strconv.Itoa(g.year)
}

// ParseAdmissionYear returns the numeric admission year, if any. Text that
// is not a four-digit year yields false.
func ParseAdmissionYear(raw string) (int32, bool) {
	year, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil || year < minYear || year > maxYear {
		return 0, false
	}
	return int32(year), true
}

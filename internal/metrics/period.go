package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Periods are ISO YYYY-MM strings, so lexical ordering is chronological.

// maxPeriod returns the latest period present, or "" for an empty input.
func maxPeriod(periods []string) string {
	max := ""
	for _, p := range periods {
		if p > max {
			max = p
		}
	}
	return max
}

// distinctSorted returns the distinct period values sorted ascending.
func distinctSorted(periods []string) []string {
	seen := make(map[string]struct{}, len(periods))
	var out []string
	for _, p := range periods {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// lastN returns at most the final n elements of an ascending-sorted slice.
func lastN(sorted []string, n int) []string {
	if len(sorted) <= n {
		return sorted
	}
	return sorted[len(sorted)-n:]
}

func parsePeriod(p string) (year, month int, err error) {
	parts := strings.SplitN(p, "-", 2)
	if len(parts) != 2 {
		return 0, 0, eris.Errorf("metrics: malformed period %q", p)
	}
	if year, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, eris.Wrapf(err, "metrics: malformed period %q", p)
	}
	if month, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, eris.Wrapf(err, "metrics: malformed period %q", p)
	}
	return year, month, nil
}

// fiscalYTDStart returns the first period of the fiscal year that contains
// current. With an April start, 2024-02 sits in the fiscal year that began
// 2023-04; 2024-05 sits in the one that began 2024-04.
func fiscalYTDStart(current string, fyStartMonth int) (string, error) {
	year, month, err := parsePeriod(current)
	if err != nil {
		return "", err
	}
	if month < fyStartMonth {
		year--
	}
	return fmt.Sprintf("%04d-%02d", year, fyStartMonth), nil
}

// inYTDWindow reports whether p falls inside the fiscal year-to-date window
// ending at current.
func inYTDWindow(p, current, ytdStart string) bool {
	return p >= ytdStart && p <= current
}

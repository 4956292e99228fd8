package catalog

import (
	"regexp"
	"strconv"
)

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration converts an ISO-8601 time duration such as PT1H2M3S into
// seconds. Missing components count as zero. ok is false when s does not
// match the PT#H#M#S shape.
func ParseDuration(s string) (seconds int, ok bool) {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	units := []int{3600, 60, 1}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, false
		}
		seconds += n * unit
	}
	return seconds, true
}

package alumni

import "time"

const (
	// MaxBadgesPerUser counts pending and verified badges together.
	MaxBadgesPerUser = 4
	// MaxRequestsPerWindow is the number of submissions allowed in RequestWindow.
	MaxRequestsPerWindow = 10
	RequestWindow        = 7 * 24 * time.Hour
)

// RateWindowStart is the inclusive lower bound of the rolling request window.
func RateWindowStart(now time.Time) time.Time {
	return now.Add(-RequestWindow)
}

// BlockExpiry is when a block created at now stops applying.
func BlockExpiry(now time.Time) time.Time {
	return now.AddDate(0, 3, 0)
}

package alumni

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBlockActive(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	assert.True(t, (&Block{BlockedUntil: now.Add(time.Nanosecond)}).Active(now))
	assert.False(t, (&Block{BlockedUntil: now}).Active(now), "a block expiring exactly now is inactive")
	assert.False(t, (&Block{BlockedUntil: now.Add(-time.Hour)}).Active(now))
}

func TestWindowAndExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC), RateWindowStart(now))
	assert.Equal(t, time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC), BlockExpiry(now))
}

func TestBadgeMatching(t *testing.T) {
	t.Parallel()

	linked := &Badge{SchoolID: sql.NullInt64{Int64: 7, Valid: true}, School: "Old Name", AdmissionYear: "2015", GraduationYear: "2019", Status: BadgeStatusPending}
	assert.True(t, linked.BelongsTo(7, "New Name"), "school id wins over a renamed school")
	assert.True(t, linked.BelongsTo(8, "Old Name"))
	assert.False(t, linked.BelongsTo(8, "New Name"))

	assert.True(t, linked.Matches("Old Name", "2015", "2019"))
	assert.False(t, linked.Matches("Old Name", "2016", "2019"))

	verified := *linked
	verified.Status = BadgeStatusVerified
	assert.False(t, verified.Matches("Old Name", "2015", "2019"), "only pending badges match")
}

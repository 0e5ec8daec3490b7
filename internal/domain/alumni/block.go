package alumni

import "time"

// BlockReasonBadgeDeleted is the only reason currently recorded on blocks.
const BlockReasonBadgeDeleted = "badge_deleted"

// Block prevents a user from re-requesting verification from a school
// until BlockedUntil. Expired blocks stay in 'alumni_request_blocks'.
type Block struct {
	ID           int64
	UserID       int64
	SchoolID     int64
	BlockedUntil time.Time
	Reason       string
	CreatedAt    time.Time
}

// Active reports whether the block still applies at now. A block expiring
// exactly at now is inactive.
func (b *Block) Active(now time.Time) bool {
	return b.BlockedUntil.After(now)
}

// internal/domain/alumni/badge.go
package alumni

import (
	"database/sql"
	"time"
)

// BadgeStatus is the state of a user's claimed affiliation with a school.
type BadgeStatus string

const (
	BadgeStatusPending  BadgeStatus = "pending"
	BadgeStatusVerified BadgeStatus = "verified"
)

// Badge represents a user's claimed or verified affiliation with one school.
// Corresponds to the 'alumni_badges' table.
type Badge struct {
	ID             int64
	UserID         int64
	SchoolID       sql.NullInt64 // NULL on rows created before school ids were recorded
	School         string        // Denormalized school name, kept for display and name matching
	FullName       string
	AdmissionYear  string
	GraduationYear string // Free text, see ParseGraduation
	Status         BadgeStatus
	CreatedAt      time.Time
}

// BelongsTo reports whether the badge refers to the given school, either by id or by name.
func (b *Badge) BelongsTo(schoolID int64, schoolName string) bool {
	if b.SchoolID.Valid && b.SchoolID.Int64 == schoolID {
		return true
	}
	return b.School == schoolName
}

// Matches is the attribute-matching rule used when a request has no linked badge.
func (b *Badge) Matches(schoolName, admissionYear, graduationYear string) bool {
	return b.School == schoolName &&
		b.Status == BadgeStatusPending &&
		b.AdmissionYear == admissionYear &&
		b.GraduationYear == graduationYear
}

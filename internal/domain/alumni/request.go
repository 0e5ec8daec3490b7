// internal/domain/alumni/request.go
package alumni

import (
	"database/sql"
	"time"
)

// RequestStatus tracks a verification submission through school review.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusDenied   RequestStatus = "denied"
)

// Request is a verification submission awaiting school review.
// Corresponds to the 'alumni_requests' table. Approved requests are deleted;
// denied ones stay for audit.
type Request struct {
	ID                   int64
	UserID               int64
	SchoolID             int64
	BadgeID              sql.NullInt64 // Pending badge created alongside the request
	FullName             string
	AdmissionYear        string
	GraduationYear       string
	PostHeld             sql.NullString
	StudentName          sql.NullString
	StudentAdmissionYear sql.NullString
	AdditionalInfo       sql.NullString
	Status               RequestStatus
	ReviewedBy           sql.NullInt64
	ReviewedAt           sql.NullTime
	ReviewNotes          sql.NullString
	CreatedAt            time.Time
}

// SubmitInput carries the fields a viewer provides when requesting verification.
type SubmitInput struct {
	UserID         int64
	SchoolID       int64
	FullName       string
	AdmissionYear  string
	GraduationYear string

	PostHeld             string
	StudentName          string
	StudentAdmissionYear string
	AdditionalInfo       string
}

// ApprovalResult is what ApproveRequest returns. Badge is nil when no
// pending badge could be found for the request.
type ApprovalResult struct {
	Request *Request // Snapshot taken before the row was deleted
	Badge   *Badge
	Student *Student
}

// DenialResult is what DenyRequest returns.
type DenialResult struct {
	Request      *Request
	BadgeRemoved bool
}

// internal/domain/alumni/repository.go
package alumni

import (
	"context"
	"time"
)

// Repository defines persistence for badges, requests, blocks and students.
type Repository interface {
	// LockUser serialises concurrent submissions by the same user until the
	// surrounding transaction ends.
	LockUser(ctx context.Context, userID int64) error

	// AlumniBadge methods
	CreateBadge(ctx context.Context, b *Badge) error
	GetBadgeByID(ctx context.Context, id int64) (*Badge, error)
	ListBadgesByUser(ctx context.Context, userID int64) ([]*Badge, error)
	// ListBadgesBySchool matches on school_id, or on the denormalized name for rows without one.
	ListBadgesBySchool(ctx context.Context, schoolID int64, schoolName string) ([]*Badge, error)
	UpdateBadgeStatus(ctx context.Context, id int64, status BadgeStatus) error
	DeleteBadge(ctx context.Context, id int64) error

	// AlumniRequest methods
	CreateRequest(ctx context.Context, r *Request) error
	GetRequestByID(ctx context.Context, id int64) (*Request, error)
	// GetRequestForUpdate locks the row until the surrounding transaction ends.
	GetRequestForUpdate(ctx context.Context, id int64) (*Request, error)
	HasPendingRequest(ctx context.Context, userID, schoolID int64) (bool, error)
	CountRequestsSince(ctx context.Context, userID int64, since time.Time) (int, error)
	ListRequestsBySchool(ctx context.Context, schoolID int64) ([]*Request, error)
	ListPendingRequestsCreatedBefore(ctx context.Context, before time.Time) ([]*Request, error)
	UpdateRequestReview(ctx context.Context, r *Request) error
	DeleteRequest(ctx context.Context, id int64) error

	// AlumniRequestBlock methods
	CreateBlock(ctx context.Context, b *Block) error
	// LatestBlockUntil returns the maximum blocked_until among all blocks for
	// the pair, and false if there are none.
	LatestBlockUntil(ctx context.Context, userID, schoolID int64) (time.Time, bool, error)

	// Student methods
	CreateStudent(ctx context.Context, s *Student) error
}

// Store is a Repository that can run a unit of work in one transaction.
type Store interface {
	Repository
	// WithinTx runs fn against a transactional Repository. The transaction
	// commits if fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Repository) error) error
}

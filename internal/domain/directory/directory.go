package directory

import (
	"context"
	"database/sql"
)

// User is the slice of a platform user the alumni engine needs.
type User struct {
	ID       int64
	FullName string
}

// School is a registered school.
type School struct {
	ID          int64
	Name        string
	YearFounded sql.NullInt32
}

// UserDirectory resolves user ids. Read-only from the engine's side.
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*User, error)
}

// SchoolDirectory resolves schools by id and, for badge deletion, by name.
type SchoolDirectory interface {
	GetSchoolByID(ctx context.Context, id int64) (*School, error)
	GetSchoolByName(ctx context.Context, name string) (*School, error)
}

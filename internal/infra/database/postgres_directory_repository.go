package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"yearbook_alumni/internal/domain/directory"
)

var ErrUserNotFound = fmt.Errorf("user not found")
var ErrSchoolNotFound = fmt.Errorf("school not found")

// PostgresDirectory reads users and schools owned by the rest of the platform.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (r *PostgresDirectory) GetUser(ctx context.Context, id int64) (*directory.User, error) {
	u := &directory.User{}
	err := r.db.QueryRowContext(ctx, `SELECT id, full_name FROM users WHERE id = $1`, id).Scan(&u.ID, &u.FullName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by ID: %w", err)
	}
	return u, nil
}

func (r *PostgresDirectory) GetSchoolByID(ctx context.Context, id int64) (*directory.School, error) {
	query := `SELECT id, name, year_founded FROM schools WHERE id = $1`
	s := &directory.School{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.YearFounded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("error getting school by ID: %w", err)
	}
	return s, nil
}

// GetSchoolByName returns the oldest school with exactly this name.
func (r *PostgresDirectory) GetSchoolByName(ctx context.Context, name string) (*directory.School, error) {
	query := `SELECT id, name, year_founded FROM schools WHERE name = $1 ORDER BY id LIMIT 1`
	s := &directory.School{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&s.ID, &s.Name, &s.YearFounded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("error getting school by name: %w", err)
	}
	return s, nil
}

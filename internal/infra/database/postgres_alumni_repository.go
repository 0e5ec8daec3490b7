package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"yearbook_alumni/internal/domain/alumni"
)

// Custom errors
var ErrBadgeNotFound = fmt.Errorf("alumni badge not found")
var ErrRequestNotFound = fmt.Errorf("alumni request not found")
var ErrDuplicatePendingRequest = fmt.Errorf("pending alumni request already exists for (user_id, school_id)")

const onePendingRequestIndex = "alumni_requests_one_pending_idx"

const badgeColumns = `id, user_id, school_id, school, full_name, admission_year, graduation_year, status, created_at`

const requestColumns = `id, user_id, school_id, badge_id, full_name, admission_year, graduation_year,
       post_held, student_name, student_admission_year, additional_info,
       status, reviewed_by, reviewed_at, review_notes, created_at`

type PostgresAlumniRepository struct {
	db *sql.DB
	q  querier
}

func NewPostgresAlumniRepository(db *sql.DB) *PostgresAlumniRepository {
	return &PostgresAlumniRepository{db: db, q: db}
}

// WithinTx runs fn with a repository bound to a single transaction.
func (r *PostgresAlumniRepository) WithinTx(ctx context.Context, fn func(tx alumni.Repository) error) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin alumni transaction: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	if err := fn(&PostgresAlumniRepository{db: r.db, q: txn}); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit alumni transaction: %w", err)
	}
	return nil
}

func (r *PostgresAlumniRepository) LockUser(ctx context.Context, userID int64) error {
	if _, err := r.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, userID); err != nil {
		return fmt.Errorf("error locking alumni submissions for user %d: %w", userID, err)
	}
	return nil
}

// --- AlumniBadge Methods ---

func (r *PostgresAlumniRepository) CreateBadge(ctx context.Context, b *alumni.Badge) error {
	query := `INSERT INTO alumni_badges (user_id, school_id, school, full_name, admission_year, graduation_year, status, created_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               RETURNING id`
	err := r.q.QueryRowContext(ctx, query,
		b.UserID, b.SchoolID, b.School, b.FullName, b.AdmissionYear, b.GraduationYear, b.Status, b.CreatedAt,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("error creating alumni badge: %w", err)
	}
	return nil
}

func scanBadge(row interface{ Scan(...any) error }) (*alumni.Badge, error) {
	b := &alumni.Badge{}
	err := row.Scan(&b.ID, &b.UserID, &b.SchoolID, &b.School, &b.FullName,
		&b.AdmissionYear, &b.GraduationYear, &b.Status, &b.CreatedAt)
	return b, err
}

func scanBadges(rows *sql.Rows) ([]*alumni.Badge, error) {
	badges := make([]*alumni.Badge, 0)
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning alumni badge row: %w", err)
		}
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alumni badge rows: %w", err)
	}
	return badges, nil
}

func (r *PostgresAlumniRepository) GetBadgeByID(ctx context.Context, id int64) (*alumni.Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM alumni_badges WHERE id = $1`
	b, err := scanBadge(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadgeNotFound
		}
		return nil, fmt.Errorf("error getting alumni badge by ID: %w", err)
	}
	return b, nil
}

func (r *PostgresAlumniRepository) ListBadgesByUser(ctx context.Context, userID int64) ([]*alumni.Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM alumni_badges WHERE user_id = $1 ORDER BY created_at, id`
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing alumni badges by user: %w", err)
	}
	defer rows.Close()
	return scanBadges(rows)
}

func (r *PostgresAlumniRepository) ListBadgesBySchool(ctx context.Context, schoolID int64, schoolName string) ([]*alumni.Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM alumni_badges
               WHERE school_id = $1 OR (school_id IS NULL AND school = $2)
               ORDER BY created_at, id`
	rows, err := r.q.QueryContext(ctx, query, schoolID, schoolName)
	if err != nil {
		return nil, fmt.Errorf("error listing alumni badges by school: %w", err)
	}
	defer rows.Close()
	return scanBadges(rows)
}

func (r *PostgresAlumniRepository) UpdateBadgeStatus(ctx context.Context, id int64, status alumni.BadgeStatus) error {
	res, err := r.q.ExecContext(ctx, `UPDATE alumni_badges SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("error updating alumni badge status: %w", err)
	}
	return requireAffected(res, ErrBadgeNotFound)
}

func (r *PostgresAlumniRepository) DeleteBadge(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM alumni_badges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting alumni badge: %w", err)
	}
	return requireAffected(res, ErrBadgeNotFound)
}

// --- AlumniRequest Methods ---

func (r *PostgresAlumniRepository) CreateRequest(ctx context.Context, req *alumni.Request) error {
	query := `INSERT INTO alumni_requests (user_id, school_id, badge_id, full_name, admission_year, graduation_year,
                   post_held, student_name, student_admission_year, additional_info, status, created_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
               RETURNING id`
	err := r.q.QueryRowContext(ctx, query,
		req.UserID, req.SchoolID, req.BadgeID, req.FullName, req.AdmissionYear, req.GraduationYear,
		req.PostHeld, req.StudentName, req.StudentAdmissionYear, req.AdditionalInfo, req.Status, req.CreatedAt,
	).Scan(&req.ID)
	if err != nil {
		if isUniqueViolation(err, onePendingRequestIndex) {
			return ErrDuplicatePendingRequest
		}
		return fmt.Errorf("error creating alumni request: %w", err)
	}
	return nil
}

func scanRequest(row interface{ Scan(...any) error }) (*alumni.Request, error) {
	req := &alumni.Request{}
	err := row.Scan(
		&req.ID, &req.UserID, &req.SchoolID, &req.BadgeID, &req.FullName, &req.AdmissionYear, &req.GraduationYear,
		&req.PostHeld, &req.StudentName, &req.StudentAdmissionYear, &req.AdditionalInfo,
		&req.Status, &req.ReviewedBy, &req.ReviewedAt, &req.ReviewNotes, &req.CreatedAt,
	)
	return req, err
}

func scanRequests(rows *sql.Rows) ([]*alumni.Request, error) {
	requests := make([]*alumni.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning alumni request row: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alumni request rows: %w", err)
	}
	return requests, nil
}

func (r *PostgresAlumniRepository) getRequest(ctx context.Context, query string, id int64) (*alumni.Request, error) {
	req, err := scanRequest(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("error getting alumni request by ID: %w", err)
	}
	return req, nil
}

func (r *PostgresAlumniRepository) GetRequestByID(ctx context.Context, id int64) (*alumni.Request, error) {
	return r.getRequest(ctx, `SELECT `+requestColumns+` FROM alumni_requests WHERE id = $1`, id)
}

func (r *PostgresAlumniRepository) GetRequestForUpdate(ctx context.Context, id int64) (*alumni.Request, error) {
	return r.getRequest(ctx, `SELECT `+requestColumns+` FROM alumni_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresAlumniRepository) HasPendingRequest(ctx context.Context, userID, schoolID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM alumni_requests WHERE user_id = $1 AND school_id = $2 AND status = $3)`
	var exists bool
	if err := r.q.QueryRowContext(ctx, query, userID, schoolID, alumni.RequestStatusPending).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking pending alumni request: %w", err)
	}
	return exists, nil
}

func (r *PostgresAlumniRepository) CountRequestsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM alumni_requests WHERE user_id = $1 AND created_at >= $2`
	var count int
	if err := r.q.QueryRowContext(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting recent alumni requests: %w", err)
	}
	return count, nil
}

func (r *PostgresAlumniRepository) ListRequestsBySchool(ctx context.Context, schoolID int64) ([]*alumni.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM alumni_requests WHERE school_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.q.QueryContext(ctx, query, schoolID)
	if err != nil {
		return nil, fmt.Errorf("error listing alumni requests by school: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *PostgresAlumniRepository) ListPendingRequestsCreatedBefore(ctx context.Context, before time.Time) ([]*alumni.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM alumni_requests
               WHERE status = $1 AND created_at < $2
               ORDER BY school_id, created_at` // Oldest first within each school
	rows, err := r.q.QueryContext(ctx, query, alumni.RequestStatusPending, before)
	if err != nil {
		return nil, fmt.Errorf("error listing stale pending alumni requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *PostgresAlumniRepository) UpdateRequestReview(ctx context.Context, req *alumni.Request) error {
	query := `UPDATE alumni_requests
               SET status = $1, reviewed_by = $2, reviewed_at = $3, review_notes = $4
               WHERE id = $5`
	res, err := r.q.ExecContext(ctx, query, req.Status, req.ReviewedBy, req.ReviewedAt, req.ReviewNotes, req.ID)
	if err != nil {
		return fmt.Errorf("error updating alumni request review: %w", err)
	}
	return requireAffected(res, ErrRequestNotFound)
}

func (r *PostgresAlumniRepository) DeleteRequest(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM alumni_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting alumni request: %w", err)
	}
	return requireAffected(res, ErrRequestNotFound)
}

// --- AlumniRequestBlock Methods ---

func (r *PostgresAlumniRepository) CreateBlock(ctx context.Context, b *alumni.Block) error {
	query := `INSERT INTO alumni_request_blocks (user_id, school_id, blocked_until, reason, created_at)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id`
	err := r.q.QueryRowContext(ctx, query, b.UserID, b.SchoolID, b.BlockedUntil, b.Reason, b.CreatedAt).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("error creating alumni request block: %w", err)
	}
	return nil
}

func (r *PostgresAlumniRepository) LatestBlockUntil(ctx context.Context, userID, schoolID int64) (time.Time, bool, error) {
	query := `SELECT MAX(blocked_until) FROM alumni_request_blocks WHERE user_id = $1 AND school_id = $2`
	var until sql.NullTime
	if err := r.q.QueryRowContext(ctx, query, userID, schoolID).Scan(&until); err != nil {
		return time.Time{}, false, fmt.Errorf("error reading alumni request blocks: %w", err)
	}
	return until.Time, until.Valid, nil
}

// --- Student Methods ---

func (r *PostgresAlumniRepository) CreateStudent(ctx context.Context, s *alumni.Student) error {
	query := `INSERT INTO students (school_id, full_name, graduation_year, admission_year, profile_image)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id`
	err := r.q.QueryRowContext(ctx, query, s.SchoolID, s.FullName, s.GraduationYear, s.AdmissionYear, s.ProfileImage).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("error creating student: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

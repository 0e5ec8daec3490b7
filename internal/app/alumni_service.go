package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"yearbook_alumni/internal/domain/alumni"
	"yearbook_alumni/internal/domain/directory"
	"yearbook_alumni/internal/domain/notification"
	idb "yearbook_alumni/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// AlumniEngine is the API the HTTP and Telegram layers call into.
type AlumniEngine interface {
	SubmitRequest(ctx context.Context, in alumni.SubmitInput) (*alumni.Request, error)
	ApproveRequest(ctx context.Context, requestID, reviewerUserID int64, reviewNotes string) (*alumni.ApprovalResult, error)
	DenyRequest(ctx context.Context, requestID, reviewerUserID int64, reviewNotes string) (*alumni.DenialResult, error)
	DeleteBadge(ctx context.Context, badgeID, actingUserID int64) error
	ListBadgesForUser(ctx context.Context, userID int64) ([]*alumni.Badge, error)
	ListBadgesForSchool(ctx context.Context, schoolID int64) ([]*alumni.Badge, error)
	ListRequestsForSchool(ctx context.Context, schoolID int64) ([]*alumni.Request, error)
	ListPendingRequests(ctx context.Context, olderThan time.Duration) ([]*alumni.Request, error)
}

// AlumniService owns the lifecycle of alumni badges and verification requests.
type AlumniService struct {
	store    alumni.Store
	users    directory.UserDirectory
	schools  directory.SchoolDirectory
	notifier notification.Sink
	logger   *logrus.Entry
	now      func() time.Time
}

func NewAlumniService(
	store alumni.Store,
	users directory.UserDirectory,
	schools directory.SchoolDirectory,
	notifier notification.Sink,
	logger *logrus.Entry,
) *AlumniService {
	return &AlumniService{
		store:    store,
		users:    users,
		schools:  schools,
		notifier: notifier,
		logger:   logger.WithField("component", "alumni_service"),
		now:      time.Now,
	}
}

// SubmitRequest records a verification request together with a pending badge.
// Preconditions are evaluated in a fixed order and the first failure is returned.
func (s *AlumniService) SubmitRequest(ctx context.Context, in alumni.SubmitInput) (*alumni.Request, error) {
	in = trimInput(in)
	if err := validateSubmitInput(in); err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{"user_id": in.UserID, "school_id": in.SchoolID})
	now := s.now()

	// Directory reads use their own connection, so they run before the
	// transaction takes one. Their errors are raised at their place in the
	// precondition order below.
	school, schoolErr := s.lookupSubmitSchool(ctx, in.SchoolID)
	user, userErr := s.lookupSubmitUser(ctx, in.UserID)

	var created *alumni.Request
	err := s.store.WithinTx(ctx, func(tx alumni.Repository) error {
		// Serialise this user's submissions so the checks below cannot interleave.
		if err := tx.LockUser(ctx, in.UserID); err != nil {
			return err
		}

		pending, err := tx.HasPendingRequest(ctx, in.UserID, in.SchoolID)
		if err != nil {
			return err
		}
		if pending {
			return alumni.NewDuplicateRequestError()
		}

		blockedUntil, hasBlock, err := tx.LatestBlockUntil(ctx, in.UserID, in.SchoolID)
		if err != nil {
			return err
		}
		if hasBlock && blockedUntil.After(now) {
			return alumni.NewBlockedError(blockedUntil)
		}

		if schoolErr != nil {
			return schoolErr
		}

		badges, err := tx.ListBadgesByUser(ctx, in.UserID)
		if err != nil {
			return err
		}
		for _, b := range badges {
			if b.BelongsTo(school.ID, school.Name) {
				return alumni.NewDuplicateSchoolBadgeError(school.Name)
			}
		}
		if len(badges) >= alumni.MaxBadgesPerUser {
			return alumni.NewBadgeLimitError(alumni.MaxBadgesPerUser)
		}

		recent, err := tx.CountRequestsSince(ctx, in.UserID, alumni.RateWindowStart(now))
		if err != nil {
			return err
		}
		if recent >= alumni.MaxRequestsPerWindow {
			return alumni.NewRateLimitError(alumni.MaxRequestsPerWindow, alumni.RequestWindow)
		}

		if userErr != nil {
			return userErr
		}

		badge := &alumni.Badge{
			UserID:         in.UserID,
			SchoolID:       sql.NullInt64{Int64: school.ID, Valid: true},
			School:         school.Name,
			FullName:       user.FullName,
			AdmissionYear:  in.AdmissionYear,
			GraduationYear: in.GraduationYear,
			Status:         alumni.BadgeStatusPending,
			CreatedAt:      now,
		}
		if err := tx.CreateBadge(ctx, badge); err != nil {
			return err
		}

		req := &alumni.Request{
			UserID:               in.UserID,
			SchoolID:             in.SchoolID,
			BadgeID:              sql.NullInt64{Int64: badge.ID, Valid: true},
			FullName:             in.FullName,
			AdmissionYear:        in.AdmissionYear,
			GraduationYear:       in.GraduationYear,
			PostHeld:             nullString(in.PostHeld),
			StudentName:          nullString(in.StudentName),
			StudentAdmissionYear: nullString(in.StudentAdmissionYear),
			AdditionalInfo:       nullString(in.AdditionalInfo),
			Status:               alumni.RequestStatusPending,
			CreatedAt:            now,
		}
		if err := tx.CreateRequest(ctx, req); err != nil {
			if errors.Is(err, idb.ErrDuplicatePendingRequest) {
				return alumni.NewDuplicateRequestError()
			}
			return err
		}
		created = req
		return nil
	})
	if err != nil {
		s.logRejection(log, err, "Alumni request rejected")
		return nil, err
	}

	log.WithFields(logrus.Fields{"request_id": created.ID, "badge_id": created.BadgeID.Int64}).Info("Alumni request submitted")

	s.notifier.Send(ctx, created.UserID, notification.TypeAlumniRequestSent,
		"Alumni request sent",
		fmt.Sprintf("Your alumni verification request for %s has been sent and is awaiting review.", school.Name),
		created.ID)

	return created, nil
}

// ApproveRequest verifies the request's badge, adds the requester to the
// school's alumni directory and deletes the request.
func (s *AlumniService) ApproveRequest(ctx context.Context, requestID, reviewerUserID int64, reviewNotes string) (*alumni.ApprovalResult, error) {
	log := s.logger.WithFields(logrus.Fields{"request_id": requestID, "reviewer_id": reviewerUserID})
	now := s.now()

	school, schoolErr := s.lookupRequestSchool(ctx, requestID)

	var result *alumni.ApprovalResult
	err := s.store.WithinTx(ctx, func(tx alumni.Repository) error {
		req, err := s.loadPendingRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if schoolErr != nil {
			return schoolErr
		}
		if school == nil || school.ID != req.SchoolID {
			return alumni.NewInternalError("alumni request %d changed while it was being reviewed", req.ID)
		}

		badge, err := s.findRequestBadge(ctx, tx, req, school.Name)
		if err != nil {
			return err
		}
		if badge != nil {
			if err := tx.UpdateBadgeStatus(ctx, badge.ID, alumni.BadgeStatusVerified); err != nil {
				return err
			}
			badge.Status = alumni.BadgeStatusVerified
		} else {
			log.WithFields(logrus.Fields{"user_id": req.UserID, "school_id": req.SchoolID}).
				Warn("No pending badge matches the approved alumni request; approving without a badge upgrade")
		}

		grad, err := alumni.ParseGraduation(req.GraduationYear)
		if err != nil {
			return alumni.NewInternalError("alumni request %d has an unparseable graduation year: %v", req.ID, err)
		}
		student := &alumni.Student{
			SchoolID:       req.SchoolID,
			FullName:       req.FullName,
			GraduationYear: grad.StudentYear(),
		}
		if year, ok := alumni.ParseAdmissionYear(req.AdmissionYear); ok {
			student.AdmissionYear = sql.NullInt32{Int32: year, Valid: true}
		}
		if err := tx.CreateStudent(ctx, student); err != nil {
			return err
		}

		if err := tx.DeleteRequest(ctx, req.ID); err != nil {
			return err
		}

		req.Status = alumni.RequestStatusApproved
		req.ReviewedBy = sql.NullInt64{Int64: reviewerUserID, Valid: true}
		req.ReviewedAt = sql.NullTime{Time: now, Valid: true}
		req.ReviewNotes = nullString(strings.TrimSpace(reviewNotes))
		result = &alumni.ApprovalResult{Request: req, Badge: badge, Student: student}
		return nil
	})
	if err != nil {
		s.logRejection(log, err, "Alumni request approval failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"user_id":    result.Request.UserID,
		"school_id":  result.Request.SchoolID,
		"student_id": result.Student.ID,
		"badge_set":  result.Badge != nil,
	}).Info("Alumni request approved")

	s.notifier.Send(ctx, result.Request.UserID, notification.TypeAlumniApproved,
		"Alumni request approved",
		fmt.Sprintf("Your alumni verification for %s has been approved. Your badge is now verified.", school.Name),
		result.Request.ID)

	return result, nil
}

// DenyRequest marks the request denied, keeps it for audit and removes its pending badge.
func (s *AlumniService) DenyRequest(ctx context.Context, requestID, reviewerUserID int64, reviewNotes string) (*alumni.DenialResult, error) {
	log := s.logger.WithFields(logrus.Fields{"request_id": requestID, "reviewer_id": reviewerUserID})
	now := s.now()
	reviewNotes = strings.TrimSpace(reviewNotes)

	school, schoolErr := s.lookupRequestSchool(ctx, requestID)

	var result *alumni.DenialResult
	err := s.store.WithinTx(ctx, func(tx alumni.Repository) error {
		req, err := s.loadPendingRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}

		req.Status = alumni.RequestStatusDenied
		req.ReviewedBy = sql.NullInt64{Int64: reviewerUserID, Valid: true}
		req.ReviewedAt = sql.NullTime{Time: now, Valid: true}
		req.ReviewNotes = nullString(reviewNotes)
		if err := tx.UpdateRequestReview(ctx, req); err != nil {
			return err
		}

		if schoolErr != nil {
			return schoolErr
		}
		if school == nil || school.ID != req.SchoolID {
			return alumni.NewInternalError("alumni request %d changed while it was being reviewed", req.ID)
		}

		badge, err := s.findRequestBadge(ctx, tx, req, school.Name)
		if err != nil {
			return err
		}
		result = &alumni.DenialResult{Request: req}
		if badge == nil {
			log.WithFields(logrus.Fields{"user_id": req.UserID, "school_id": req.SchoolID}).
				Warn("No pending badge matches the denied alumni request")
			return nil
		}
		if err := tx.DeleteBadge(ctx, badge.ID); err != nil {
			return err
		}
		result.BadgeRemoved = true
		return nil
	})
	if err != nil {
		s.logRejection(log, err, "Alumni request denial failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"user_id":       result.Request.UserID,
		"school_id":     result.Request.SchoolID,
		"badge_removed": result.BadgeRemoved,
	}).Info("Alumni request denied")

	message := fmt.Sprintf("Your alumni verification request for %s was denied.", school.Name)
	if reviewNotes != "" {
		message = fmt.Sprintf("%s Reason: %s", message, reviewNotes)
	}
	s.notifier.Send(ctx, result.Request.UserID, notification.TypeAlumniDenied, "Alumni request denied", message, result.Request.ID)

	return result, nil
}

// DeleteBadge removes a pending or verified badge and blocks its owner from
// re-requesting verification from that school for three months.
func (s *AlumniService) DeleteBadge(ctx context.Context, badgeID, actingUserID int64) error {
	log := s.logger.WithFields(logrus.Fields{"badge_id": badgeID, "acting_user_id": actingUserID})
	now := s.now()

	namedSchoolID, namedOK := s.lookupBadgeSchoolByName(ctx, badgeID, log)

	var block *alumni.Block
	err := s.store.WithinTx(ctx, func(tx alumni.Repository) error {
		badge, err := tx.GetBadgeByID(ctx, badgeID)
		if err != nil {
			if errors.Is(err, idb.ErrBadgeNotFound) {
				return alumni.NewNotFoundError("alumni badge", badgeID)
			}
			return err
		}
		if err := tx.DeleteBadge(ctx, badge.ID); err != nil {
			return err
		}

		schoolID, ok := badge.SchoolID.Int64, badge.SchoolID.Valid
		if !ok {
			schoolID, ok = namedSchoolID, namedOK
		}
		if !ok {
			return nil
		}
		block = &alumni.Block{
			UserID:       badge.UserID,
			SchoolID:     schoolID,
			BlockedUntil: alumni.BlockExpiry(now),
			Reason:       alumni.BlockReasonBadgeDeleted,
			CreatedAt:    now,
		}
		return tx.CreateBlock(ctx, block)
	})
	if err != nil {
		s.logRejection(log, err, "Alumni badge deletion failed")
		return err
	}

	if block != nil {
		log.WithFields(logrus.Fields{
			"user_id":       block.UserID,
			"school_id":     block.SchoolID,
			"blocked_until": block.BlockedUntil.Format(time.RFC3339),
		}).Info("Alumni badge deleted; re-requests blocked")
	} else {
		log.Info("Alumni badge deleted without a block")
	}
	return nil
}

func (s *AlumniService) ListBadgesForUser(ctx context.Context, userID int64) ([]*alumni.Badge, error) {
	return s.store.ListBadgesByUser(ctx, userID)
}

func (s *AlumniService) ListBadgesForSchool(ctx context.Context, schoolID int64) ([]*alumni.Badge, error) {
	school, err := s.schools.GetSchoolByID(ctx, schoolID)
	if err != nil {
		if errors.Is(err, idb.ErrSchoolNotFound) {
			return nil, alumni.NewNotFoundError("school", schoolID)
		}
		return nil, fmt.Errorf("failed to resolve school %d: %w", schoolID, err)
	}
	return s.store.ListBadgesBySchool(ctx, school.ID, school.Name)
}

func (s *AlumniService) ListRequestsForSchool(ctx context.Context, schoolID int64) ([]*alumni.Request, error) {
	return s.store.ListRequestsBySchool(ctx, schoolID)
}

// ListPendingRequests returns pending requests, across all schools, that have
// waited at least olderThan for review.
func (s *AlumniService) ListPendingRequests(ctx context.Context, olderThan time.Duration) ([]*alumni.Request, error) {
	return s.store.ListPendingRequestsCreatedBefore(ctx, s.now().Add(-olderThan))
}

func (s *AlumniService) loadPendingRequest(ctx context.Context, tx alumni.Repository, requestID int64) (*alumni.Request, error) {
	req, err := tx.GetRequestForUpdate(ctx, requestID)
	if err != nil {
		if errors.Is(err, idb.ErrRequestNotFound) {
			return nil, alumni.NewNotFoundError("alumni request", requestID)
		}
		return nil, err
	}
	if req.Status != alumni.RequestStatusPending {
		return nil, alumni.NewValidationError("requestId", fmt.Sprintf("alumni request %d has already been %s", req.ID, req.Status))
	}
	return req, nil
}

func (s *AlumniService) lookupSubmitSchool(ctx context.Context, schoolID int64) (*directory.School, error) {
	school, err := s.schools.GetSchoolByID(ctx, schoolID)
	if err != nil {
		if errors.Is(err, idb.ErrSchoolNotFound) {
			return nil, alumni.NewNotFoundError("school", schoolID)
		}
		return nil, fmt.Errorf("failed to resolve school %d: %w", schoolID, err)
	}
	return school, nil
}

func (s *AlumniService) lookupSubmitUser(ctx context.Context, userID int64) (*directory.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, idb.ErrUserNotFound) {
			return nil, alumni.NewInternalError("user %d submitting an alumni request does not exist", userID)
		}
		return nil, fmt.Errorf("failed to resolve user %d: %w", userID, err)
	}
	return user, nil
}

// lookupRequestSchool resolves the school of a request before the review
// transaction starts. A missing request is not an error here; the
// transaction reports it. A request's school never changes once created.
func (s *AlumniService) lookupRequestSchool(ctx context.Context, requestID int64) (*directory.School, error) {
	req, err := s.store.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, idb.ErrRequestNotFound) {
			return nil, nil
		}
		return nil, err
	}
	school, err := s.schools.GetSchoolByID(ctx, req.SchoolID)
	if err != nil {
		if errors.Is(err, idb.ErrSchoolNotFound) {
			return nil, alumni.NewInternalError("school %d referenced by alumni request %d no longer exists", req.SchoolID, req.ID)
		}
		return nil, fmt.Errorf("failed to resolve school %d: %w", req.SchoolID, err)
	}
	return school, nil
}

// findRequestBadge follows the request's badge link. Requests without a link
// fall back to matching on school name, status and both years.
func (s *AlumniService) findRequestBadge(ctx context.Context, tx alumni.Repository, req *alumni.Request, schoolName string) (*alumni.Badge, error) {
	if req.BadgeID.Valid {
		badge, err := tx.GetBadgeByID(ctx, req.BadgeID.Int64)
		if err != nil {
			if errors.Is(err, idb.ErrBadgeNotFound) {
				return nil, nil
			}
			return nil, err
		}
		if badge.UserID != req.UserID || badge.Status != alumni.BadgeStatusPending {
			return nil, nil
		}
		return badge, nil
	}

	badges, err := tx.ListBadgesByUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	for _, b := range badges {
		if b.Matches(schoolName, req.AdmissionYear, req.GraduationYear) {
			return b, nil
		}
	}
	return nil, nil
}

// lookupBadgeSchoolByName resolves the school of a legacy badge that only
// carries a school name. It never fails: a badge whose school cannot be
// resolved is still deleted, just without a block.
func (s *AlumniService) lookupBadgeSchoolByName(ctx context.Context, badgeID int64, log *logrus.Entry) (int64, bool) {
	badge, err := s.store.GetBadgeByID(ctx, badgeID)
	if err != nil || badge.SchoolID.Valid {
		return 0, false
	}
	school, err := s.schools.GetSchoolByName(ctx, badge.School)
	if err != nil {
		entry := log.WithError(err).WithField("school", badge.School)
		if errors.Is(err, idb.ErrSchoolNotFound) {
			entry.Warn("No school matches the deleted badge; skipping request block")
		} else {
			entry.Error("Failed to resolve school for deleted badge; skipping request block")
		}
		return 0, false
	}
	return school.ID, true
}

func (s *AlumniService) logRejection(log *logrus.Entry, err error, msg string) {
	var engineErr *alumni.Error
	if errors.As(err, &engineErr) && !errors.Is(err, alumni.ErrInternalInconsistency) {
		log.WithField("reason", engineErr.Error()).Info(msg)
		return
	}
	log.WithError(err).Error(msg)
}

func trimInput(in alumni.SubmitInput) alumni.SubmitInput {
	in.FullName = strings.TrimSpace(in.FullName)
	in.AdmissionYear = strings.TrimSpace(in.AdmissionYear)
	in.GraduationYear = strings.TrimSpace(in.GraduationYear)
	in.PostHeld = strings.TrimSpace(in.PostHeld)
	in.StudentName = strings.TrimSpace(in.StudentName)
	in.StudentAdmissionYear = strings.TrimSpace(in.StudentAdmissionYear)
	in.AdditionalInfo = strings.TrimSpace(in.AdditionalInfo)
	return in
}

func validateSubmitInput(in alumni.SubmitInput) error {
	switch {
	case in.UserID <= 0:
		return alumni.NewValidationError("userId", "is required")
	case in.SchoolID <= 0:
		return alumni.NewValidationError("schoolId", "is required")
	case in.FullName == "":
		return alumni.NewValidationError("fullName", "is required")
	case in.AdmissionYear == "":
		return alumni.NewValidationError("admissionYear", "is required")
	case in.GraduationYear == "":
		return alumni.NewValidationError("graduationYear", "is required")
	}
	if _, err := alumni.ParseGraduation(in.GraduationYear); err != nil {
		return alumni.NewValidationError("graduationYear", "must be a year or state that you did not graduate")
	}
	return nil
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

package httpapi

import (
	"time"

	"yearbook_alumni/internal/domain/alumni"
	"yearbook_alumni/internal/domain/notification"
)

type SubmitRequestBody struct {
	SchoolID             int64  `json:"schoolId"`
	FullName             string `json:"fullName"`
	AdmissionYear        string `json:"admissionYear"`
	GraduationYear       string `json:"graduationYear"`
	PostHeld             string `json:"postHeld"`
	StudentName          string `json:"studentName"`
	StudentAdmissionYear string `json:"studentAdmissionYear"`
	AdditionalInfo       string `json:"additionalInfo"`
}

type ReviewBody struct {
	Notes string `json:"notes"`
}

type BadgeResponse struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	SchoolID       *int64    `json:"schoolId,omitempty"`
	School         string    `json:"school"`
	FullName       string    `json:"fullName"`
	AdmissionYear  string    `json:"admissionYear"`
	GraduationYear string    `json:"graduationYear"`
	DidNotGraduate bool      `json:"didNotGraduate"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

type RequestResponse struct {
	ID                   int64      `json:"id"`
	UserID               int64      `json:"userId"`
	SchoolID             int64      `json:"schoolId"`
	BadgeID              *int64     `json:"badgeId,omitempty"`
	FullName             string     `json:"fullName"`
	AdmissionYear        string     `json:"admissionYear"`
	GraduationYear       string     `json:"graduationYear"`
	PostHeld             *string    `json:"postHeld,omitempty"`
	StudentName          *string    `json:"studentName,omitempty"`
	StudentAdmissionYear *string    `json:"studentAdmissionYear,omitempty"`
	AdditionalInfo       *string    `json:"additionalInfo,omitempty"`
	Status               string     `json:"status"`
	ReviewedBy           *int64     `json:"reviewedBy,omitempty"`
	ReviewedAt           *time.Time `json:"reviewedAt,omitempty"`
	ReviewNotes          *string    `json:"reviewNotes,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}

type StudentResponse struct {
	ID             int64  `json:"id"`
	SchoolID       int64  `json:"schoolId"`
	FullName       string `json:"fullName"`
	GraduationYear int    `json:"graduationYear"`
	AdmissionYear  *int32 `json:"admissionYear,omitempty"`
}

type ApprovalResponse struct {
	Request RequestResponse  `json:"request"`
	Badge   *BadgeResponse   `json:"badge"`
	Student *StudentResponse `json:"student"`
}

type DenialResponse struct {
	Request      RequestResponse `json:"request"`
	BadgeRemoved bool            `json:"badgeRemoved"`
}

type NotificationResponse struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	RelatedID *int64    `json:"relatedId,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

func toBadgeResponse(b *alumni.Badge) BadgeResponse {
	out := BadgeResponse{
		ID:             b.ID,
		UserID:         b.UserID,
		School:         b.School,
		FullName:       b.FullName,
		AdmissionYear:  b.AdmissionYear,
		GraduationYear: b.GraduationYear,
		Status:         string(b.Status),
		CreatedAt:      b.CreatedAt,
	}
	if b.SchoolID.Valid {
		out.SchoolID = &b.SchoolID.Int64
	}
	if g, err := alumni.ParseGraduation(b.GraduationYear); err == nil {
		out.DidNotGraduate = !g.IsGraduated()
	}
	return out
}

func toBadgeResponses(badges []*alumni.Badge) []BadgeResponse {
	out := make([]BadgeResponse, 0, len(badges))
	for _, b := range badges {
		out = append(out, toBadgeResponse(b))
	}
	return out
}

func toRequestResponse(r *alumni.Request) RequestResponse {
	out := RequestResponse{
		ID:             r.ID,
		UserID:         r.UserID,
		SchoolID:       r.SchoolID,
		FullName:       r.FullName,
		AdmissionYear:  r.AdmissionYear,
		GraduationYear: r.GraduationYear,
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt,
	}
	if r.BadgeID.Valid {
		out.BadgeID = &r.BadgeID.Int64
	}
	if r.PostHeld.Valid {
		out.PostHeld = &r.PostHeld.String
	}
	if r.StudentName.Valid {
		out.StudentName = &r.StudentName.String
	}
	if r.StudentAdmissionYear.Valid {
		out.StudentAdmissionYear = &r.StudentAdmissionYear.String
	}
	if r.AdditionalInfo.Valid {
		out.AdditionalInfo = &r.AdditionalInfo.String
	}
	if r.ReviewedBy.Valid {
		out.ReviewedBy = &r.ReviewedBy.Int64
	}
	if r.ReviewedAt.Valid {
		out.ReviewedAt = &r.ReviewedAt.Time
	}
	if r.ReviewNotes.Valid {
		out.ReviewNotes = &r.ReviewNotes.String
	}
	return out
}

func toRequestResponses(requests []*alumni.Request) []RequestResponse {
	out := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, toRequestResponse(r))
	}
	return out
}

func toStudentResponse(s *alumni.Student) *StudentResponse {
	if s == nil {
		return nil
	}
	out := &StudentResponse{
		ID:             s.ID,
		SchoolID:       s.SchoolID,
		FullName:       s.FullName,
		GraduationYear: s.GraduationYear,
	}
	if s.AdmissionYear.Valid {
		out.AdmissionYear = &s.AdmissionYear.Int32
	}
	return out
}

func toNotificationResponses(ns []*notification.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(ns))
	for _, n := range ns {
		item := NotificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		}
		if n.RelatedID.Valid {
			item.RelatedID = &n.RelatedID.Int64
		}
		out = append(out, item)
	}
	return out
}

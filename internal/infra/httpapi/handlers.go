package httpapi

import (
	"strconv"

	"yearbook_alumni/internal/app"
	"yearbook_alumni/internal/domain/alumni"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// UserIDHeader carries the acting user's id. Session handling happens upstream.
const UserIDHeader = "X-User-ID"

type AlumniHandler struct {
	engine        app.AlumniEngine
	notifications app.NotificationService
	logger        *logrus.Entry
}

func NewAlumniHandler(engine app.AlumniEngine, notifications app.NotificationService, logger *logrus.Entry) *AlumniHandler {
	return &AlumniHandler{engine: engine, notifications: notifications, logger: logger}
}

func (h *AlumniHandler) SetupRoutes(fapp *fiber.App) {
	fapp.Get("/healthz", h.Health)

	api := fapp.Group("/api")

	requests := api.Group("/alumni/requests")
	requests.Post("/", h.SubmitRequest)
	requests.Post("/:id/approve", h.ApproveRequest)
	requests.Post("/:id/deny", h.DenyRequest)

	api.Delete("/alumni/badges/:id", h.DeleteBadge)

	api.Get("/users/:id/badges", h.ListUserBadges)
	api.Get("/users/:id/notifications", h.ListNotifications)
	api.Post("/notifications/:id/read", h.MarkNotificationRead)

	api.Get("/schools/:id/badges", h.ListSchoolBadges)
	api.Get("/schools/:id/requests", h.ListSchoolRequests)
}

func (h *AlumniHandler) Health(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Healthy!",
	})
}

func (h *AlumniHandler) SubmitRequest(ctx *fiber.Ctx) error {
	userID, err := actingUser(ctx)
	if err != nil {
		return err
	}

	var body SubmitRequestBody
	if err := ctx.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Please provide valid inputs")
	}

	req, err := h.engine.SubmitRequest(ctx.UserContext(), alumni.SubmitInput{
		UserID:               userID,
		SchoolID:             body.SchoolID,
		FullName:             body.FullName,
		AdmissionYear:        body.AdmissionYear,
		GraduationYear:       body.GraduationYear,
		PostHeld:             body.PostHeld,
		StudentName:          body.StudentName,
		StudentAdmissionYear: body.StudentAdmissionYear,
		AdditionalInfo:       body.AdditionalInfo,
	})
	if err != nil {
		return responseEngineError(ctx, err)
	}
	return ResponseSuccess(ctx, fiber.StatusCreated, toRequestResponse(req))
}

func (h *AlumniHandler) ApproveRequest(ctx *fiber.Ctx) error {
	reviewerID, requestID, notes, err := h.reviewParams(ctx)
	if err != nil {
		return err
	}

	res, err := h.engine.ApproveRequest(ctx.UserContext(), requestID, reviewerID, notes)
	if err != nil {
		return responseEngineError(ctx, err)
	}

	out := ApprovalResponse{
		Request: toRequestResponse(res.Request),
		Student: toStudentResponse(res.Student),
	}
	if res.Badge != nil {
		b := toBadgeResponse(res.Badge)
		out.Badge = &b
	}
	return ResponseSuccess(ctx, fiber.StatusOK, out)
}

func (h *AlumniHandler) DenyRequest(ctx *fiber.Ctx) error {
	reviewerID, requestID, notes, err := h.reviewParams(ctx)
	if err != nil {
		return err
	}

	res, err := h.engine.DenyRequest(ctx.UserContext(), requestID, reviewerID, notes)
	if err != nil {
		return responseEngineError(ctx, err)
	}
	return ResponseSuccess(ctx, fiber.StatusOK, DenialResponse{
		Request:      toRequestResponse(res.Request),
		BadgeRemoved: res.BadgeRemoved,
	})
}

func (h *AlumniHandler) DeleteBadge(ctx *fiber.Ctx) error {
	userID, err := actingUser(ctx)
	if err != nil {
		return err
	}
	badgeID, err := pathID(ctx)
	if err != nil {
		return err
	}

	if err := h.engine.DeleteBadge(ctx.UserContext(), badgeID, userID); err != nil {
		return responseEngineError(ctx, err)
	}
	return ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{"deleted": true})
}

func (h *AlumniHandler) ListUserBadges(ctx *fiber.Ctx) error {
	userID, err := pathID(ctx)
	if err != nil {
		return err
	}
	badges, err := h.engine.ListBadgesForUser(ctx.UserContext(), userID)
	if err != nil {
		return h.internalError(ctx, err, "list user badges")
	}
	return ResponseSuccess(ctx, fiber.StatusOK, toBadgeResponses(badges))
}

// ListSchoolBadges supports ?verified=true for school dashboards.
func (h *AlumniHandler) ListSchoolBadges(ctx *fiber.Ctx) error {
	schoolID, err := pathID(ctx)
	if err != nil {
		return err
	}
	badges, err := h.engine.ListBadgesForSchool(ctx.UserContext(), schoolID)
	if err != nil {
		return responseEngineError(ctx, err)
	}
	if ctx.QueryBool("verified") {
		verified := badges[:0]
		for _, b := range badges {
			if b.Status == alumni.BadgeStatusVerified {
				verified = append(verified, b)
			}
		}
		badges = verified
	}
	return ResponseSuccess(ctx, fiber.StatusOK, toBadgeResponses(badges))
}

func (h *AlumniHandler) ListSchoolRequests(ctx *fiber.Ctx) error {
	schoolID, err := pathID(ctx)
	if err != nil {
		return err
	}
	requests, err := h.engine.ListRequestsForSchool(ctx.UserContext(), schoolID)
	if err != nil {
		return h.internalError(ctx, err, "list school requests")
	}
	return ResponseSuccess(ctx, fiber.StatusOK, toRequestResponses(requests))
}

// ListNotifications only lists the caller's own notifications.
func (h *AlumniHandler) ListNotifications(ctx *fiber.Ctx) error {
	actingID, err := actingUser(ctx)
	if err != nil {
		return err
	}
	userID, err := pathID(ctx)
	if err != nil {
		return err
	}
	if userID != actingID {
		return fiber.NewError(fiber.StatusForbidden, "you can only list your own notifications")
	}
	ns, err := h.notifications.ListForUser(ctx.UserContext(), userID, ctx.QueryBool("unread"))
	if err != nil {
		return h.internalError(ctx, err, "list notifications")
	}
	return ResponseSuccess(ctx, fiber.StatusOK, toNotificationResponses(ns))
}

func (h *AlumniHandler) MarkNotificationRead(ctx *fiber.Ctx) error {
	userID, err := actingUser(ctx)
	if err != nil {
		return err
	}
	notificationID, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(ctx.UserContext(), userID, notificationID); err != nil {
		return responseEngineError(ctx, err)
	}
	return ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{"read": true})
}

func (h *AlumniHandler) reviewParams(ctx *fiber.Ctx) (reviewerID, requestID int64, notes string, err error) {
	if reviewerID, err = actingUser(ctx); err != nil {
		return 0, 0, "", err
	}
	if requestID, err = pathID(ctx); err != nil {
		return 0, 0, "", err
	}
	var body ReviewBody
	if len(ctx.Body()) > 0 {
		if perr := ctx.BodyParser(&body); perr != nil {
			return 0, 0, "", fiber.NewError(fiber.StatusBadRequest, "Please provide valid inputs")
		}
	}
	return reviewerID, requestID, body.Notes, nil
}

func (h *AlumniHandler) internalError(ctx *fiber.Ctx, err error, op string) error {
	h.logger.WithError(err).WithField("operation", op).Error("Request failed")
	return responseEngineError(ctx, err)
}

// actingUser reads the caller's id from UserIDHeader.
func actingUser(ctx *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(ctx.Get(UserIDHeader), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "missing or invalid "+UserIDHeader+" header")
	}
	return id, nil
}

func pathID(ctx *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id in path")
	}
	return id, nil
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// ComplaintsHandler manages complaint endpoints.
type ComplaintsHandler struct {
	complaints *service.ComplaintService
	stats      *service.StatsService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaintService *service.ComplaintService, statsService *service.StatsService) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaintService, stats: statsService}
}

// Create handles POST /complaints.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewAuthError("authentication required")
	}
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	complaint, err := h.complaints.Create(c.UserContext(), identity, service.ComplaintCreateInput{
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		Location:    req.Location,
		ImageURL:    req.Image,
		Priority:    req.Priority,
		Tags:        req.Tags,
		Coordinates: req.Coordinates,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.OKMessage("Complaint created successfully", dto.NewComplaintResponse(complaint)))
}

// List handles GET /complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	input, err := parseListQuery(c)
	if err != nil {
		return err
	}

	complaints, info, err := h.complaints.List(c.UserContext(), input)
	if err != nil {
		return err
	}

	items := make([]dto.ComplaintResponse, 0, len(complaints))
	for i := range complaints {
		items = append(items, dto.NewComplaintResponse(&complaints[i]))
	}
	return c.JSON(dto.OKPage(items, info))
}

// Get handles GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	detail, err := h.complaints.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(dto.NewComplaintDetailResponse(detail)))
}

// UpdateStatus handles PUT /complaints/:id/status.
func (h *ComplaintsHandler) UpdateStatus(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewAuthError("authentication required")
	}
	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	complaint, err := h.complaints.UpdateStatus(c.UserContext(), *identity, c.Params("id"), service.StatusUpdateInput{
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
		Priority:   req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.OKMessage("Complaint status updated successfully", dto.NewComplaintResponse(complaint)))
}

// AddComment handles POST /complaints/:id/comments.
func (h *ComplaintsHandler) AddComment(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewAuthError("authentication required")
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	complaint, err := h.complaints.AddComment(c.UserContext(), *identity, c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(dto.OKMessage("Comment added successfully", dto.NewComplaintResponse(complaint)))
}

// Delete handles DELETE /complaints/:id.
func (h *ComplaintsHandler) Delete(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewAuthError("authentication required")
	}
	if err := h.complaints.Delete(c.UserContext(), *identity, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.OKMessage("Complaint deleted successfully", nil))
}

// Stats handles GET /complaints/stats.
func (h *ComplaintsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.GetStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(stats))
}

func parseListQuery(c *fiber.Ctx) (service.ListInput, error) {
	input := service.ListInput{
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	details := map[string]any{}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			details["page"] = "Page must be a positive integer"
		} else {
			input.Page = page
		}
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			details["limit"] = "Limit must be between 1 and 100"
		} else {
			input.Limit = limit
		}
	}
	if len(details) > 0 {
		return service.ListInput{}, apperrors.NewValidationError("Validation failed", details)
	}

	if status := c.Query("status"); status != "" {
		input.Status = &status
	}
	if category := c.Query("category"); category != "" {
		input.Category = &category
	}
	if search := c.Query("search"); search != "" {
		input.Search = &search
	}
	return input, nil
}

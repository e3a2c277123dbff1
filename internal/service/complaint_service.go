package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// ComplaintService owns the complaint lifecycle: creation, the status
// state machine, comment appends and deletion, plus the filtered list
// view.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	dispatcher events.Dispatcher
}

// ComplaintDependencies bundles requirements for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	Dispatcher    events.Dispatcher
}

// ComplaintCreateInput describes the creation payload.
type ComplaintCreateInput struct {
	Title       string
	Category    domain.ComplaintCategory
	Description string
	Location    string
	ImageURL    *string
	Priority    domain.ComplaintPriority
	Tags        []string
	Coordinates *domain.Coordinates
}

// StatusUpdateInput is the staff/admin triage patch. AssignedTo and
// Priority are optional parts of the same atomic update.
type StatusUpdateInput struct {
	Status     domain.ComplaintStatus
	AssignedTo *string
	Priority   *domain.ComplaintPriority
}

// ListInput carries raw filter options. Enum-valued fields arrive as
// strings so unknown values fail validation instead of being cast
// silently.
type ListInput struct {
	Page      int
	Limit     int
	Status    *string
	Category  *string
	Search    *string
	SortBy    string
	SortOrder string
}

// PageInfo is the pagination metadata returned alongside a list query.
type PageInfo struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	return &ComplaintService{
		complaints: deps.ComplaintRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Create files a new complaint. A nil author records an anonymous
// complaint with no creator reference.
func (s *ComplaintService) Create(ctx context.Context, author *domain.Identity, input ComplaintCreateInput) (*domain.Complaint, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Location = strings.TrimSpace(input.Location)

	if details := validateComplaintInput(input); len(details) > 0 {
		return nil, apperrors.NewValidationError("Validation failed", details)
	}

	complaint := &domain.Complaint{
		Title:       input.Title,
		Category:    input.Category,
		Description: input.Description,
		Location:    input.Location,
		ImageURL:    input.ImageURL,
		Status:      domain.StatusPending,
		Priority:    input.Priority,
		Tags:        trimTags(input.Tags),
		Coordinates: input.Coordinates,
	}
	if complaint.Priority == "" {
		complaint.Priority = domain.PriorityMedium
	}
	if complaint.Tags == nil {
		complaint.Tags = []string{}
	}
	if author != nil {
		userID := author.UserID
		complaint.CreatedBy = &userID
	}

	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintCreated,
		ComplaintID: complaint.ID,
		Actor:       actorFor(author),
		Payload: events.ComplaintCreatedPayload{
			Category: complaint.Category,
			Priority: complaint.Priority,
			Title:    complaint.Title,
			Location: complaint.Location,
		},
	})
	return complaint, nil
}

// UpdateStatus moves a complaint to any of the three states; there is no
// forward-only constraint. Restricted to staff and admins. The first
// transition into Resolved stamps resolvedAt; later transitions never
// clear or overwrite it.
func (s *ComplaintService) UpdateStatus(ctx context.Context, identity domain.Identity, complaintID string, input StatusUpdateInput) (*domain.Complaint, error) {
	if !identity.HasRole(domain.RoleStaff, domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("staff or admin role required")
	}

	details := map[string]any{}
	if !validID(complaintID) {
		details["id"] = "Invalid complaint id"
	}
	if !input.Status.Valid() {
		details["status"] = "Status must be Pending, In Progress, or Resolved"
	}
	if input.AssignedTo != nil && !validID(*input.AssignedTo) {
		details["assignedTo"] = "Invalid assignee id"
	}
	if input.Priority != nil && !input.Priority.Valid() {
		details["priority"] = "Priority must be Low, Medium, or High"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("Validation failed", details)
	}

	// Read for the event's old status only; the patch itself is a single
	// atomic statement.
	existing, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"id": complaintID})
		}
		return nil, apperrors.MapError(err)
	}

	updated, err := s.complaints.UpdateStatus(ctx, complaintID, input.Status, input.AssignedTo, input.Priority)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"id": complaintID})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintStatusChanged,
		ComplaintID: updated.ID,
		Actor:       actorFor(&identity),
		Payload: events.ComplaintStatusChangedPayload{
			OldStatus:  existing.Status,
			NewStatus:  updated.Status,
			AssignedTo: updated.AssignedTo,
		},
	})
	return updated, nil
}

// AddComment appends a comment to the end of the complaint's thread. Any
// authenticated identity may comment.
func (s *ComplaintService) AddComment(ctx context.Context, identity domain.Identity, complaintID, text string) (*domain.Complaint, error) {
	if !validID(complaintID) {
		return nil, apperrors.NewValidationError("Validation failed", map[string]any{
			"id": "Invalid complaint id",
		})
	}
	text = strings.TrimSpace(text)
	if len(text) < 1 || len(text) > 500 {
		return nil, apperrors.NewValidationError("Validation failed", map[string]any{
			"text": "Comment must be between 1 and 500 characters",
		})
	}

	comment := domain.Comment{
		Text:      text,
		Author:    identity.Name,
		CreatedAt: time.Now(),
	}
	updated, err := s.complaints.AppendComment(ctx, complaintID, comment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"id": complaintID})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintCommentAdded,
		ComplaintID: updated.ID,
		Actor:       actorFor(&identity),
		Payload: events.ComplaintCommentAddedPayload{
			Author:      comment.Author,
			TextPreview: stringPreview(comment.Text, 120),
		},
	})
	return updated, nil
}

// Delete permanently removes a complaint. Admin only.
func (s *ComplaintService) Delete(ctx context.Context, identity domain.Identity, complaintID string) error {
	if !identity.HasRole(domain.RoleAdmin) {
		return apperrors.NewForbidden("admin role required")
	}
	if !validID(complaintID) {
		return apperrors.NewValidationError("Validation failed", map[string]any{
			"id": "Invalid complaint id",
		})
	}

	existing, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("complaint", map[string]any{"id": complaintID})
		}
		return apperrors.MapError(err)
	}

	if err := s.complaints.Delete(ctx, complaintID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("complaint", map[string]any{"id": complaintID})
		}
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintDeleted,
		ComplaintID: complaintID,
		Actor:       actorFor(&identity),
		Payload:     events.ComplaintDeletedPayload{Title: existing.Title},
	})
	return nil
}

// Get fetches a complaint with its creator/assignee references resolved
// for presentation.
func (s *ComplaintService) Get(ctx context.Context, complaintID string) (*domain.ComplaintDetail, error) {
	if !validID(complaintID) {
		return nil, apperrors.NewValidationError("Validation failed", map[string]any{
			"id": "Invalid complaint id",
		})
	}
	detail, err := s.complaints.GetDetail(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"id": complaintID})
		}
		return nil, apperrors.MapError(err)
	}
	return detail, nil
}

// List returns a filtered, sorted page of complaints. Invalid filter
// values fail before any store access.
func (s *ComplaintService) List(ctx context.Context, input ListInput) ([]domain.Complaint, PageInfo, error) {
	filter, page, limit, err := buildFilter(input)
	if err != nil {
		return nil, PageInfo{}, err
	}

	total, err := s.complaints.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, PageInfo{}, apperrors.MapError(err)
	}

	items, err := s.complaints.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, PageInfo{}, apperrors.MapError(err)
	}

	totalPages := (total + limit - 1) / limit
	info := PageInfo{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
	}
	return items, info, nil
}

func buildFilter(input ListInput) (repository.ComplaintFilter, int, int, error) {
	details := map[string]any{}

	page := input.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		details["page"] = "Page must be a positive integer"
	}

	limit := input.Limit
	if limit == 0 {
		limit = 10
	}
	if limit < 1 || limit > 100 {
		details["limit"] = "Limit must be between 1 and 100"
	}

	filter := repository.ComplaintFilter{}

	if input.Status != nil {
		status := domain.ComplaintStatus(*input.Status)
		if !status.Valid() {
			details["status"] = "Status must be Pending, In Progress, or Resolved"
		} else {
			filter.Status = &status
		}
	}
	if input.Category != nil {
		category := domain.ComplaintCategory(*input.Category)
		if !category.Valid() {
			details["category"] = "Invalid category"
		} else {
			filter.Category = &category
		}
	}
	if input.Search != nil {
		search := strings.TrimSpace(*input.Search)
		if len(search) < 1 || len(search) > 100 {
			details["search"] = "Search term must be between 1 and 100 characters"
		} else {
			filter.Search = &search
		}
	}

	sortBy := input.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	switch sortBy {
	case "createdAt", "updatedAt", "title", "status", "priority":
	default:
		details["sortBy"] = "Invalid sort field"
	}

	sortOrder := strings.ToLower(input.SortOrder)
	if sortOrder == "" {
		sortOrder = "desc"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		details["sortOrder"] = "Sort order must be asc or desc"
	}

	if len(details) > 0 {
		return repository.ComplaintFilter{}, 0, 0, apperrors.NewValidationError("Validation failed", details)
	}

	filter.SortBy = sortBy
	filter.SortOrder = sortOrder
	filter.Limit = limit
	filter.Offset = (page - 1) * limit
	return filter, page, limit, nil
}

func validateComplaintInput(input ComplaintCreateInput) map[string]any {
	details := map[string]any{}
	if len(input.Title) < 5 || len(input.Title) > 200 {
		details["title"] = "Title must be between 5 and 200 characters"
	}
	if !input.Category.Valid() {
		details["category"] = "Please select a valid category"
	}
	if len(input.Description) < 10 || len(input.Description) > 1000 {
		details["description"] = "Description must be between 10 and 1000 characters"
	}
	if len(input.Location) < 5 || len(input.Location) > 300 {
		details["location"] = "Location must be between 5 and 300 characters"
	}
	if input.ImageURL != nil && !isHTTPURL(*input.ImageURL) {
		details["image"] = "Image must be a valid URL"
	}
	if input.Priority != "" && !input.Priority.Valid() {
		details["priority"] = "Priority must be Low, Medium, or High"
	}
	for _, tag := range input.Tags {
		if len(strings.TrimSpace(tag)) > 50 {
			details["tags"] = "Each tag cannot exceed 50 characters"
			break
		}
	}
	if input.Coordinates != nil && !input.Coordinates.Valid() {
		details["coordinates"] = "Latitude must be between -90 and 90 and longitude between -180 and 180"
	}
	return details
}

// validID guards uuid columns so a malformed identifier fails validation
// instead of surfacing as a database error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func trimTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (s *ComplaintService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFor(identity *domain.Identity) events.Actor {
	if identity == nil {
		return events.Actor{}
	}
	userID := identity.UserID
	return events.Actor{UserID: &userID, Role: identity.Role}
}

// stringPreview truncates on rune boundaries so multi-byte text never
// leaves an invalid UTF-8 fragment in the event payload.
func stringPreview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	Title       string                   `json:"title"`
	Category    domain.ComplaintCategory `json:"category"`
	Description string                   `json:"description"`
	Location    string                   `json:"location"`
	Image       *string                  `json:"image,omitempty"`
	Priority    domain.ComplaintPriority `json:"priority,omitempty"`
	Tags        []string                 `json:"tags,omitempty"`
	Coordinates *domain.Coordinates      `json:"coordinates,omitempty"`
}

// StatusUpdateRequest is the staff/admin triage patch.
type StatusUpdateRequest struct {
	Status     domain.ComplaintStatus    `json:"status"`
	AssignedTo *string                   `json:"assignedTo,omitempty"`
	Priority   *domain.ComplaintPriority `json:"priority,omitempty"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Text string `json:"text"`
}

// CommentResponse is one thread entry.
type CommentResponse struct {
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRefResponse is a resolved weak user reference.
type UserRefResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ComplaintResponse is the full complaint projection.
type ComplaintResponse struct {
	ID          string                   `json:"id"`
	Title       string                   `json:"title"`
	Category    domain.ComplaintCategory `json:"category"`
	Description string                   `json:"description"`
	Location    string                   `json:"location"`
	Image       *string                  `json:"image,omitempty"`
	Status      domain.ComplaintStatus   `json:"status"`
	Priority    domain.ComplaintPriority `json:"priority"`
	Tags        []string                 `json:"tags"`
	Coordinates *domain.Coordinates      `json:"coordinates,omitempty"`
	CreatedBy   *string                  `json:"createdBy,omitempty"`
	AssignedTo  *string                  `json:"assignedTo,omitempty"`
	ResolvedAt  *time.Time               `json:"resolvedAt,omitempty"`
	CreatedAt   time.Time                `json:"createdAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
	Comments    []CommentResponse        `json:"comments"`
}

// ComplaintDetailResponse adds the resolved creator/assignee references.
type ComplaintDetailResponse struct {
	ComplaintResponse
	Creator  *UserRefResponse `json:"creator,omitempty"`
	Assignee *UserRefResponse `json:"assignee,omitempty"`
}

// NewComplaintResponse maps a domain complaint.
func NewComplaintResponse(complaint *domain.Complaint) ComplaintResponse {
	comments := make([]CommentResponse, 0, len(complaint.Comments))
	for _, comment := range complaint.Comments {
		comments = append(comments, CommentResponse{
			Text:      comment.Text,
			Author:    comment.Author,
			CreatedAt: comment.CreatedAt,
		})
	}
	tags := complaint.Tags
	if tags == nil {
		tags = []string{}
	}
	return ComplaintResponse{
		ID:          complaint.ID,
		Title:       complaint.Title,
		Category:    complaint.Category,
		Description: complaint.Description,
		Location:    complaint.Location,
		Image:       complaint.ImageURL,
		Status:      complaint.Status,
		Priority:    complaint.Priority,
		Tags:        tags,
		Coordinates: complaint.Coordinates,
		CreatedBy:   complaint.CreatedBy,
		AssignedTo:  complaint.AssignedTo,
		ResolvedAt:  complaint.ResolvedAt,
		CreatedAt:   complaint.CreatedAt,
		UpdatedAt:   complaint.UpdatedAt,
		Comments:    comments,
	}
}

// NewComplaintDetailResponse maps a complaint with resolved references.
func NewComplaintDetailResponse(detail *domain.ComplaintDetail) ComplaintDetailResponse {
	resp := ComplaintDetailResponse{
		ComplaintResponse: NewComplaintResponse(&detail.Complaint),
	}
	if detail.Creator != nil {
		resp.Creator = &UserRefResponse{ID: detail.Creator.ID, Name: detail.Creator.Name, Email: detail.Creator.Email}
	}
	if detail.Assignee != nil {
		resp.Assignee = &UserRefResponse{ID: detail.Assignee.ID, Name: detail.Assignee.Name, Email: detail.Assignee.Email}
	}
	return resp
}

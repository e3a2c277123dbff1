package service

import (
	"context"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

const (
	topCategoryLimit = 5
	recentLimit      = 5
)

// RecentComplaint is the trimmed projection shown on the public dashboard.
type RecentComplaint struct {
	ID        string                   `json:"id"`
	Title     string                   `json:"title"`
	Status    domain.ComplaintStatus   `json:"status"`
	Category  domain.ComplaintCategory `json:"category"`
	CreatedAt time.Time                `json:"createdAt"`
}

// CategoryStat is one entry of the category ranking.
type CategoryStat struct {
	Category domain.ComplaintCategory `json:"category"`
	Count    int                      `json:"count"`
}

// Stats aggregates the public dashboard numbers.
type Stats struct {
	StatusCounts  map[domain.ComplaintStatus]int `json:"statusCounts"`
	TopCategories []CategoryStat                 `json:"topCategories"`
	Recent        []RecentComplaint              `json:"recent"`
}

// StatsService computes read-side aggregates over the full complaint
// store. No filtering parameters; no caching.
type StatsService struct {
	complaints repository.ComplaintRepository
}

// NewStatsService constructs the service.
func NewStatsService(complaints repository.ComplaintRepository) *StatsService {
	return &StatsService{complaints: complaints}
}

// GetStats returns status counts, the top five categories by count, and
// the five most recently created complaints.
func (s *StatsService) GetStats(ctx context.Context) (*Stats, error) {
	statusCounts, err := s.complaints.StatusCounts(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	categories, err := s.complaints.TopCategories(ctx, topCategoryLimit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	recent, err := s.complaints.Recent(ctx, recentLimit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &Stats{
		StatusCounts:  statusCounts,
		TopCategories: make([]CategoryStat, 0, len(categories)),
		Recent:        make([]RecentComplaint, 0, len(recent)),
	}
	for _, entry := range categories {
		stats.TopCategories = append(stats.TopCategories, CategoryStat{
			Category: entry.Category,
			Count:    entry.Count,
		})
	}
	for _, complaint := range recent {
		stats.Recent = append(stats.Recent, RecentComplaint{
			ID:        complaint.ID,
			Title:     complaint.Title,
			Status:    complaint.Status,
			Category:  complaint.Category,
			CreatedAt: complaint.CreatedAt,
		})
	}
	return stats, nil
}

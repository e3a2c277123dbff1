package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func TestGetStats_Empty(t *testing.T) {
	repo := newFakeComplaintRepo()
	stats, err := NewStatsService(repo).GetStats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stats.StatusCounts)
	assert.Empty(t, stats.TopCategories)
	assert.Empty(t, stats.Recent)
}

func TestGetStats_StatusCounts(t *testing.T) {
	repo := newFakeComplaintRepo()
	svc := newComplaintService(repo)

	created := seedComplaints(t, svc, 6, nil)
	for _, complaint := range created[:3] {
		_, err := svc.UpdateStatus(context.Background(), staffIdentity, complaint.ID, StatusUpdateInput{Status: domain.StatusResolved})
		require.NoError(t, err)
	}
	_, err := svc.UpdateStatus(context.Background(), staffIdentity, created[3].ID, StatusUpdateInput{Status: domain.StatusInProgress})
	require.NoError(t, err)

	stats, err := NewStatsService(repo).GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.StatusCounts[domain.StatusResolved])
	assert.Equal(t, 1, stats.StatusCounts[domain.StatusInProgress])
	assert.Equal(t, 2, stats.StatusCounts[domain.StatusPending])
}

func TestGetStats_TopCategoriesCappedAtFive(t *testing.T) {
	repo := newFakeComplaintRepo()
	svc := newComplaintService(repo)

	// 7 distinct categories with distinct counts
	counts := map[domain.ComplaintCategory]int{
		domain.CategoryPothole:           7,
		domain.CategoryGarbageCollection: 6,
		domain.CategoryWaterlogging:      5,
		domain.CategoryStreetLighting:    4,
		domain.CategoryTrafficSignal:     3,
		domain.CategoryParkMaintenance:   2,
		domain.CategoryNoisePollution:    1,
	}
	for category, n := range counts {
		for i := 0; i < n; i++ {
			seedComplaints(t, svc, 1, func(_ int, input *ComplaintCreateInput) {
				input.Category = category
			})
		}
	}

	stats, err := NewStatsService(repo).GetStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats.TopCategories, 5)

	// ranked by descending count
	expected := []CategoryStat{
		{Category: domain.CategoryPothole, Count: 7},
		{Category: domain.CategoryGarbageCollection, Count: 6},
		{Category: domain.CategoryWaterlogging, Count: 5},
		{Category: domain.CategoryStreetLighting, Count: 4},
		{Category: domain.CategoryTrafficSignal, Count: 3},
	}
	assert.Equal(t, expected, stats.TopCategories)
}

func TestGetStats_TopCategoriesTieOrderIsStable(t *testing.T) {
	repo := newFakeComplaintRepo()
	svc := newComplaintService(repo)

	for _, category := range []domain.ComplaintCategory{domain.CategoryPothole, domain.CategoryOther, domain.CategoryWaterlogging} {
		seedComplaints(t, svc, 1, func(_ int, input *ComplaintCreateInput) {
			input.Category = category
		})
	}

	first, err := NewStatsService(repo).GetStats(context.Background())
	require.NoError(t, err)
	second, err := NewStatsService(repo).GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.TopCategories, second.TopCategories, "tied categories keep a consistent order")
}

func TestGetStats_RecentFiveNewestFirst(t *testing.T) {
	repo := newFakeComplaintRepo()
	svc := newComplaintService(repo)

	created := seedComplaints(t, svc, 7, nil)

	stats, err := NewStatsService(repo).GetStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats.Recent, 5)

	// newest first: creations 7,6,5,4,3
	for i, recent := range stats.Recent {
		expected := created[len(created)-1-i]
		assert.Equal(t, expected.ID, recent.ID)
		assert.Equal(t, expected.Title, recent.Title)
	}
	for i := 1; i < len(stats.Recent); i++ {
		assert.False(t, stats.Recent[i].CreatedAt.After(stats.Recent[i-1].CreatedAt))
	}
}

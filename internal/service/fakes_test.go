package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// fakeComplaintRepo is an in-memory ComplaintRepository mirroring the SQL
// implementation's semantics, including resolved_at stickiness and
// COALESCE-style partial patches.
type fakeComplaintRepo struct {
	seq        int
	base       time.Time
	complaints map[string]*domain.Complaint
	users      map[string]*domain.User
	listCalls  int
	countCalls int
}

func newFakeComplaintRepo() *fakeComplaintRepo {
	return &fakeComplaintRepo{
		// an anchor in the past keeps created timestamps behind time.Now()
		base:       time.Now().Add(-time.Hour),
		complaints: make(map[string]*domain.Complaint),
		users:      make(map[string]*domain.User),
	}
}

func (f *fakeComplaintRepo) Create(_ context.Context, complaint *domain.Complaint) error {
	f.seq++
	complaint.ID = uuid.NewString()
	// strictly increasing timestamps keep createdAt sorts deterministic
	now := f.base.Add(time.Duration(f.seq) * time.Millisecond)
	complaint.CreatedAt = now
	complaint.UpdatedAt = now
	if complaint.Comments == nil {
		complaint.Comments = []domain.Comment{}
	}
	stored := cloneComplaint(complaint)
	f.complaints[complaint.ID] = &stored
	return nil
}

func (f *fakeComplaintRepo) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	stored, ok := f.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := cloneComplaint(stored)
	return &copied, nil
}

func (f *fakeComplaintRepo) GetDetail(_ context.Context, id string) (*domain.ComplaintDetail, error) {
	stored, ok := f.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	detail := domain.ComplaintDetail{Complaint: cloneComplaint(stored)}
	if stored.CreatedBy != nil {
		if user, ok := f.users[*stored.CreatedBy]; ok {
			detail.Creator = &domain.UserRef{ID: user.ID, Name: user.Name, Email: user.Email}
		}
	}
	if stored.AssignedTo != nil {
		if user, ok := f.users[*stored.AssignedTo]; ok {
			detail.Assignee = &domain.UserRef{ID: user.ID, Name: user.Name, Email: user.Email}
		}
	}
	return &detail, nil
}

func (f *fakeComplaintRepo) UpdateStatus(_ context.Context, id string, status domain.ComplaintStatus, assignedTo *string, priority *domain.ComplaintPriority) (*domain.Complaint, error) {
	stored, ok := f.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	stored.Status = status
	if status == domain.StatusResolved && stored.ResolvedAt == nil {
		now := time.Now()
		stored.ResolvedAt = &now
	}
	if assignedTo != nil {
		stored.AssignedTo = assignedTo
	}
	if priority != nil {
		stored.Priority = *priority
	}
	stored.UpdatedAt = time.Now()
	copied := cloneComplaint(stored)
	return &copied, nil
}

func (f *fakeComplaintRepo) AppendComment(_ context.Context, id string, comment domain.Comment) (*domain.Complaint, error) {
	stored, ok := f.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	stored.Comments = append(stored.Comments, comment)
	stored.UpdatedAt = time.Now()
	copied := cloneComplaint(stored)
	return &copied, nil
}

func (f *fakeComplaintRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.complaints[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.complaints, id)
	return nil
}

func (f *fakeComplaintRepo) ListWithFilter(_ context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	f.listCalls++
	matched := f.matching(filter)
	sortComplaints(matched, filter.SortBy, filter.SortOrder)

	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (f *fakeComplaintRepo) CountWithFilter(_ context.Context, filter repository.ComplaintFilter) (int, error) {
	f.countCalls++
	return len(f.matching(filter)), nil
}

func (f *fakeComplaintRepo) StatusCounts(_ context.Context) (map[domain.ComplaintStatus]int, error) {
	counts := make(map[domain.ComplaintStatus]int)
	for _, complaint := range f.complaints {
		counts[complaint.Status]++
	}
	return counts, nil
}

func (f *fakeComplaintRepo) TopCategories(_ context.Context, limit int) ([]repository.CategoryCount, error) {
	counts := make(map[domain.ComplaintCategory]int)
	for _, complaint := range f.complaints {
		counts[complaint.Category]++
	}
	result := make([]repository.CategoryCount, 0, len(counts))
	for category, count := range counts {
		result = append(result, repository.CategoryCount{Category: category, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Category < result[j].Category
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (f *fakeComplaintRepo) Recent(_ context.Context, limit int) ([]domain.Complaint, error) {
	all := make([]domain.Complaint, 0, len(f.complaints))
	for _, complaint := range f.complaints {
		all = append(all, cloneComplaint(complaint))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeComplaintRepo) matching(filter repository.ComplaintFilter) []domain.Complaint {
	var matched []domain.Complaint
	for _, complaint := range f.complaints {
		if filter.Status != nil && complaint.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && complaint.Category != *filter.Category {
			continue
		}
		if filter.Search != nil {
			needle := strings.ToLower(*filter.Search)
			haystack := strings.ToLower(complaint.Title + " " + complaint.Description + " " + complaint.Location)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		matched = append(matched, cloneComplaint(complaint))
	}
	return matched
}

func sortComplaints(items []domain.Complaint, sortBy, sortOrder string) {
	asc := strings.EqualFold(sortOrder, "asc")
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if !asc {
			a, b = b, a
		}
		switch sortBy {
		case "updatedAt":
			return a.UpdatedAt.Before(b.UpdatedAt)
		case "title":
			return a.Title < b.Title
		case "status":
			return a.Status < b.Status
		case "priority":
			return a.Priority < b.Priority
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}

func cloneComplaint(src *domain.Complaint) domain.Complaint {
	copied := *src
	copied.Tags = append([]string(nil), src.Tags...)
	copied.Comments = append([]domain.Comment(nil), src.Comments...)
	if src.Coordinates != nil {
		coords := *src.Coordinates
		copied.Coordinates = &coords
	}
	return copied
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	seq     int
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.seq++
	user.ID = fmt.Sprintf("user-%d", f.seq)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	f.byID[user.ID] = &stored
	f.byEmail[user.Email] = &stored
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	stored, ok := f.byID[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	delete(f.byEmail, stored.Email)
	updated := *user
	updated.UpdatedAt = time.Now()
	f.byID[user.ID] = &updated
	f.byEmail[updated.Email] = &updated
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	stored, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	stored, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeUserRepo) RecordLogin(_ context.Context, id string, at time.Time) error {
	stored, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.LastLoginAt = &at
	return nil
}

// fakeThrottle counts failed attempts in memory.
type fakeThrottle struct {
	counts map[string]int
}

func newFakeThrottle() *fakeThrottle {
	return &fakeThrottle{counts: make(map[string]int)}
}

func (t *fakeThrottle) Hit(_ context.Context, email string) (int, error) {
	t.counts[email]++
	return t.counts[email], nil
}

func (t *fakeThrottle) Count(_ context.Context, email string) (int, error) {
	return t.counts[email], nil
}

func (t *fakeThrottle) Reset(_ context.Context, email string) error {
	delete(t.counts, email)
	return nil
}

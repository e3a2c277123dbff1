package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ComplaintFilter captures list parameters. Values are validated by the
// service layer before reaching the repository.
type ComplaintFilter struct {
	Status    *domain.ComplaintStatus
	Category  *domain.ComplaintCategory
	Search    *string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// CategoryCount is one row of the category ranking.
type CategoryCount struct {
	Category domain.ComplaintCategory
	Count    int
}

// sortColumns maps API sort keys to columns. Keys outside this map never
// reach the repository.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
	"status":    "status",
	"priority":  "priority",
}

// ComplaintRepository encapsulates complaint persistence. Status patches
// and comment appends are single atomic statements so concurrent writers
// cannot half-apply an update.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	GetDetail(ctx context.Context, id string) (*domain.ComplaintDetail, error)
	UpdateStatus(ctx context.Context, id string, status domain.ComplaintStatus, assignedTo *string, priority *domain.ComplaintPriority) (*domain.Complaint, error)
	AppendComment(ctx context.Context, id string, comment domain.Comment) (*domain.Complaint, error)
	Delete(ctx context.Context, id string) error
	ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	CountWithFilter(ctx context.Context, filter ComplaintFilter) (int, error)
	StatusCounts(ctx context.Context) (map[domain.ComplaintStatus]int, error)
	TopCategories(ctx context.Context, limit int) ([]CategoryCount, error)
	Recent(ctx context.Context, limit int) ([]domain.Complaint, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates the repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

const complaintColumns = `id, title, category, description, location, image_url, status, priority,
               tags, latitude, longitude, created_by, assigned_to, resolved_at,
               created_at, updated_at, comments`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (title, category, description, location, image_url,
            status, priority, tags, latitude, longitude, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at, comments`

	var lat, lng *float64
	if complaint.Coordinates != nil {
		lat = &complaint.Coordinates.Latitude
		lng = &complaint.Coordinates.Longitude
	}

	return r.pool.QueryRow(ctx, query,
		complaint.Title,
		complaint.Category,
		complaint.Description,
		complaint.Location,
		complaint.ImageURL,
		complaint.Status,
		complaint.Priority,
		complaint.Tags,
		lat,
		lng,
		complaint.CreatedBy,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt, &complaint.Comments)
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id=$1`, complaintColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanComplaintRow(row)
}

func (r *complaintRepository) GetDetail(ctx context.Context, id string) (*domain.ComplaintDetail, error) {
	const query = `
        SELECT c.id, c.title, c.category, c.description, c.location, c.image_url,
               c.status, c.priority, c.tags, c.latitude, c.longitude,
               c.created_by, c.assigned_to, c.resolved_at, c.created_at, c.updated_at, c.comments,
               creator.name, creator.email, assignee.name, assignee.email
        FROM complaints c
        LEFT JOIN users creator ON creator.id = c.created_by
        LEFT JOIN users assignee ON assignee.id = c.assigned_to
        WHERE c.id=$1`

	var (
		detail        domain.ComplaintDetail
		lat, lng      *float64
		creatorName   *string
		creatorEmail  *string
		assigneeName  *string
		assigneeEmail *string
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&detail.ID,
		&detail.Title,
		&detail.Category,
		&detail.Description,
		&detail.Location,
		&detail.ImageURL,
		&detail.Status,
		&detail.Priority,
		&detail.Tags,
		&lat,
		&lng,
		&detail.CreatedBy,
		&detail.AssignedTo,
		&detail.ResolvedAt,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.Comments,
		&creatorName,
		&creatorEmail,
		&assigneeName,
		&assigneeEmail,
	); err != nil {
		return nil, err
	}

	if lat != nil && lng != nil {
		detail.Coordinates = &domain.Coordinates{Latitude: *lat, Longitude: *lng}
	}
	if detail.CreatedBy != nil && creatorName != nil {
		detail.Creator = &domain.UserRef{ID: *detail.CreatedBy, Name: *creatorName, Email: deref(creatorEmail)}
	}
	if detail.AssignedTo != nil && assigneeName != nil {
		detail.Assignee = &domain.UserRef{ID: *detail.AssignedTo, Name: *assigneeName, Email: deref(assigneeEmail)}
	}
	return &detail, nil
}

// UpdateStatus applies the status/assignee/priority patch in one statement.
// resolved_at is set only on the first transition into Resolved and is
// never cleared afterwards.
func (r *complaintRepository) UpdateStatus(ctx context.Context, id string, status domain.ComplaintStatus, assignedTo *string, priority *domain.ComplaintPriority) (*domain.Complaint, error) {
	query := fmt.Sprintf(`
        UPDATE complaints SET
            status = $2,
            resolved_at = CASE WHEN $2 = 'Resolved' THEN COALESCE(resolved_at, NOW()) ELSE resolved_at END,
            assigned_to = COALESCE($3, assigned_to),
            priority = COALESCE($4, priority),
            updated_at = NOW()
        WHERE id = $1
        RETURNING %s`, complaintColumns)

	row := r.pool.QueryRow(ctx, query, id, status, assignedTo, priority)
	return scanComplaintRow(row)
}

// AppendComment pushes one entry onto the JSONB comment array atomically.
func (r *complaintRepository) AppendComment(ctx context.Context, id string, comment domain.Comment) (*domain.Complaint, error) {
	encoded, err := json.Marshal(comment)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
        UPDATE complaints SET comments = comments || $2::jsonb, updated_at = NOW()
        WHERE id = $1
        RETURNING %s`, complaintColumns)

	row := r.pool.QueryRow(ctx, query, id, string(encoded))
	return scanComplaintRow(row)
}

func (r *complaintRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM complaints WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	clauses, args := filterClauses(filter)

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		complaintColumns, strings.Join(clauses, " AND "), column, direction, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) CountWithFilter(ctx context.Context, filter ComplaintFilter) (int, error) {
	clauses, args := filterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM complaints WHERE %s`, strings.Join(clauses, " AND "))

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *complaintRepository) StatusCounts(ctx context.Context) (map[domain.ComplaintStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM complaints GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ComplaintStatus]int)
	for rows.Next() {
		var status domain.ComplaintStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *complaintRepository) TopCategories(ctx context.Context, limit int) ([]CategoryCount, error) {
	const query = `
        SELECT category, COUNT(*) AS count FROM complaints
        GROUP BY category ORDER BY count DESC, category ASC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CategoryCount
	for rows.Next() {
		var entry CategoryCount
		if err := rows.Scan(&entry.Category, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *complaintRepository) Recent(ctx context.Context, limit int) ([]domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints ORDER BY created_at DESC LIMIT $1`, complaintColumns)
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func filterClauses(filter ComplaintFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(location) LIKE %s)",
			placeholder, placeholder, placeholder))
	}
	return clauses, args
}

func scanComplaintRow(row pgx.Row) (*domain.Complaint, error) {
	var complaint domain.Complaint
	var lat, lng *float64
	if err := row.Scan(
		&complaint.ID,
		&complaint.Title,
		&complaint.Category,
		&complaint.Description,
		&complaint.Location,
		&complaint.ImageURL,
		&complaint.Status,
		&complaint.Priority,
		&complaint.Tags,
		&lat,
		&lng,
		&complaint.CreatedBy,
		&complaint.AssignedTo,
		&complaint.ResolvedAt,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
		&complaint.Comments,
	); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		complaint.Coordinates = &domain.Coordinates{Latitude: *lat, Longitude: *lng}
	}
	return &complaint, nil
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		complaint, err := scanComplaintRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *complaint)
	}
	return result, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

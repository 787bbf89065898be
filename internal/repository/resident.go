package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ResidentRecord 住院医师记录
type ResidentRecord struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	PGY       int       `json:"pgy"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResidentRepositoryInterface 住院医师仓储接口
type ResidentRepositoryInterface interface {
	Create(ctx context.Context, r *ResidentRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*ResidentRecord, error)
	GetByName(ctx context.Context, name string) (*ResidentRecord, error)
	Update(ctx context.Context, r *ResidentRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]*ResidentRecord, int, error)
	ListActive(ctx context.Context) ([]*ResidentRecord, error)
	ListByPGY(ctx context.Context, pgy int) ([]*ResidentRecord, error)
}

// ResidentRepository 住院医师仓储
type ResidentRepository struct {
	db DB
}

// NewResidentRepository 创建住院医师仓储
func NewResidentRepository(db DB) *ResidentRepository {
	return &ResidentRepository{db: db}
}

// Create 创建住院医师
func (r *ResidentRepository) Create(ctx context.Context, rec *ResidentRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := `
		INSERT INTO residents (id, name, pgy, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.PGY, rec.Active, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("创建住院医师失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取住院医师
func (r *ResidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*ResidentRecord, error) {
	query := `
		SELECT id, name, pgy, active, created_at, updated_at
		FROM residents WHERE id = $1
	`
	return r.scanResident(r.db.QueryRowContext(ctx, query, id))
}

// GetByName 根据姓名获取住院医师
func (r *ResidentRepository) GetByName(ctx context.Context, name string) (*ResidentRecord, error) {
	query := `
		SELECT id, name, pgy, active, created_at, updated_at
		FROM residents WHERE name = $1
	`
	return r.scanResident(r.db.QueryRowContext(ctx, query, name))
}

// Update 更新住院医师
func (r *ResidentRepository) Update(ctx context.Context, rec *ResidentRecord) error {
	rec.UpdatedAt = time.Now()
	query := `
		UPDATE residents SET name = $2, pgy = $3, active = $4, updated_at = $5
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.PGY, rec.Active, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("更新住院医师失败: %w", err)
	}
	return nil
}

// Delete 删除住院医师
func (r *ResidentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM residents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("删除住院医师失败: %w", err)
	}
	return nil
}

// List 列出住院医师
func (r *ResidentRepository) List(ctx context.Context, filter ListFilter) ([]*ResidentRecord, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Status == "active" {
		conditions = append(conditions, "active = true")
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM residents %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计住院医师数量失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, pgy, active, created_at, updated_at
		FROM residents %s
		ORDER BY pgy, name
		LIMIT $%d OFFSET $%d
	`, whereClause, argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询住院医师列表失败: %w", err)
	}
	defer rows.Close()

	var residents []*ResidentRecord
	for rows.Next() {
		rec, err := r.scanResidentRow(rows)
		if err != nil {
			return nil, 0, err
		}
		residents = append(residents, rec)
	}
	return residents, total, nil
}

// ListActive 列出在册住院医师
func (r *ResidentRepository) ListActive(ctx context.Context) ([]*ResidentRecord, error) {
	query := `
		SELECT id, name, pgy, active, created_at, updated_at
		FROM residents WHERE active = true
		ORDER BY pgy, name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询在册住院医师失败: %w", err)
	}
	defer rows.Close()

	var residents []*ResidentRecord
	for rows.Next() {
		rec, err := r.scanResidentRow(rows)
		if err != nil {
			return nil, err
		}
		residents = append(residents, rec)
	}
	return residents, nil
}

// ListByPGY 列出某年级的住院医师
func (r *ResidentRepository) ListByPGY(ctx context.Context, pgy int) ([]*ResidentRecord, error) {
	query := `
		SELECT id, name, pgy, active, created_at, updated_at
		FROM residents WHERE pgy = $1 AND active = true
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query, pgy)
	if err != nil {
		return nil, fmt.Errorf("查询年级住院医师失败: %w", err)
	}
	defer rows.Close()

	var residents []*ResidentRecord
	for rows.Next() {
		rec, err := r.scanResidentRow(rows)
		if err != nil {
			return nil, err
		}
		residents = append(residents, rec)
	}
	return residents, nil
}

func (r *ResidentRepository) scanResident(row *sql.Row) (*ResidentRecord, error) {
	rec := &ResidentRecord{}
	err := row.Scan(&rec.ID, &rec.Name, &rec.PGY, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描住院医师记录失败: %w", err)
	}
	return rec, nil
}

func (r *ResidentRepository) scanResidentRow(rows *sql.Rows) (*ResidentRecord, error) {
	rec := &ResidentRecord{}
	err := rows.Scan(&rec.ID, &rec.Name, &rec.PGY, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("扫描住院医师记录失败: %w", err)
	}
	return rec, nil
}

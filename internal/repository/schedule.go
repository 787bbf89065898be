package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/pkg/model"
)

// ScheduleRecord 区块排班记录
type ScheduleRecord struct {
	ID             uuid.UUID                 `json:"id"`
	BlockStart     string                    `json:"block_start"`
	BlockEnd       string                    `json:"block_end"`
	Status         string                    `json:"status"` // draft/published/archived
	Feasible       bool                      `json:"feasible"`
	BackboneScore  *float64                  `json:"backbone_score,omitempty"`
	InternScore    *float64                  `json:"intern_score,omitempty"`
	GoldenWeekends model.GoldenWeekendCounts `json:"golden_weekends,omitempty"`
	CarryTotals    map[string]model.PreviousTotals `json:"carry_totals,omitempty"`
	InternSummary  []model.InternSummaryRow  `json:"intern_summary,omitempty"`
	Gaps           []model.CoverageGap       `json:"gaps,omitempty"`
	GeneratedAt    time.Time                 `json:"generated_at"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// DayRecord 单日排班记录
type DayRecord struct {
	ID         uuid.UUID `json:"id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
	Date       string    `json:"date"`
	Call       string    `json:"call"`
	Backup     string    `json:"backup"`
	Intern     string    `json:"intern,omitempty"`
	Supervisor string    `json:"supervisor,omitempty"`
}

// ScheduleRepositoryInterface 排班仓储接口
type ScheduleRepositoryInterface interface {
	Create(ctx context.Context, rec *ScheduleRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*ScheduleRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]*ScheduleRecord, int, error)
	GetLatest(ctx context.Context) (*ScheduleRecord, error)

	CreateDays(ctx context.Context, scheduleID uuid.UUID, days []model.DayAssignment) error
	GetDays(ctx context.Context, scheduleID uuid.UUID) ([]*DayRecord, error)
	DeleteDays(ctx context.Context, scheduleID uuid.UUID) error
}

// ScheduleRepository 排班仓储
type ScheduleRepository struct {
	db DB
}

// NewScheduleRepository 创建排班仓储
func NewScheduleRepository(db DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// FromResult 把生成结果转换为排班记录
func FromResult(res *model.GenerationResult) *ScheduleRecord {
	return &ScheduleRecord{
		ID:             res.Schedule.ID,
		BlockStart:     res.Schedule.Block.Start.Format("2006-01-02"),
		BlockEnd:       res.Schedule.Block.End.Format("2006-01-02"),
		Status:         "draft",
		Feasible:       res.BackboneScore != nil,
		BackboneScore:  res.BackboneScore,
		InternScore:    res.InternScore,
		GoldenWeekends: res.GoldenWeekends,
		CarryTotals:    res.CarryTotals,
		InternSummary:  res.InternSummary,
		Gaps:           res.Gaps,
		GeneratedAt:    time.Now(),
	}
}

// Create 创建排班记录
func (r *ScheduleRepository) Create(ctx context.Context, rec *ScheduleRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	goldenJSON, _ := json.Marshal(rec.GoldenWeekends)
	carryJSON, _ := json.Marshal(rec.CarryTotals)
	summaryJSON, _ := json.Marshal(rec.InternSummary)
	gapsJSON, _ := json.Marshal(rec.Gaps)

	query := `
		INSERT INTO schedules (
			id, block_start, block_end, status, feasible,
			backbone_score, intern_score, golden_weekends, carry_totals,
			intern_summary, gaps, generated_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.BlockStart, rec.BlockEnd, rec.Status, rec.Feasible,
		rec.BackboneScore, rec.InternScore, goldenJSON, carryJSON,
		summaryJSON, gapsJSON, rec.GeneratedAt, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建排班记录失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取排班
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*ScheduleRecord, error) {
	query := scheduleSelect + " WHERE id = $1"
	return r.scanSchedule(r.db.QueryRowContext(ctx, query, id))
}

// UpdateStatus 更新排班状态
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := "UPDATE schedules SET status = $2, updated_at = $3 WHERE id = $1"
	_, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("更新排班状态失败: %w", err)
	}
	return nil
}

// Delete 删除排班及其每日分配
func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.DeleteDays(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "DELETE FROM schedules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("删除排班记录失败: %w", err)
	}
	return nil
}

// List 列出排班
func (r *ScheduleRepository) List(ctx context.Context, filter ListFilter) ([]*ScheduleRecord, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}
	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("block_start >= $%d", argNum))
		args = append(args, filter.StartDate)
		argNum++
	}
	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("block_end <= $%d", argNum))
		args = append(args, filter.EndDate)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM schedules %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计排班数量失败: %w", err)
	}

	query := fmt.Sprintf("%s %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		scheduleSelect, whereClause, filter.OrderBy, filter.OrderDir, argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询排班列表失败: %w", err)
	}
	defer rows.Close()

	var records []*ScheduleRecord
	for rows.Next() {
		rec, err := r.scanScheduleRow(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, nil
}

// GetLatest 获取最新生成的排班
func (r *ScheduleRepository) GetLatest(ctx context.Context) (*ScheduleRecord, error) {
	query := scheduleSelect + " ORDER BY created_at DESC LIMIT 1"
	return r.scanSchedule(r.db.QueryRowContext(ctx, query))
}

// CreateDays 批量写入每日分配
func (r *ScheduleRepository) CreateDays(ctx context.Context, scheduleID uuid.UUID, days []model.DayAssignment) error {
	query := `
		INSERT INTO schedule_days (id, schedule_id, date, call, backup, intern, supervisor)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, da := range days {
		_, err := r.db.ExecContext(ctx, query,
			uuid.New(), scheduleID, da.Date.Format("2006-01-02"),
			da.Call, da.Backup, da.Intern, da.Supervisor)
		if err != nil {
			return fmt.Errorf("写入每日分配失败: %w", err)
		}
	}
	return nil
}

// GetDays 读取每日分配
func (r *ScheduleRepository) GetDays(ctx context.Context, scheduleID uuid.UUID) ([]*DayRecord, error) {
	query := `
		SELECT id, schedule_id, date, call, backup, intern, supervisor
		FROM schedule_days
		WHERE schedule_id = $1
		ORDER BY date
	`
	rows, err := r.db.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("查询每日分配失败: %w", err)
	}
	defer rows.Close()

	var days []*DayRecord
	for rows.Next() {
		d := &DayRecord{}
		if err := rows.Scan(&d.ID, &d.ScheduleID, &d.Date,
			&d.Call, &d.Backup, &d.Intern, &d.Supervisor); err != nil {
			return nil, fmt.Errorf("扫描每日分配失败: %w", err)
		}
		days = append(days, d)
	}
	return days, nil
}

// DeleteDays 删除每日分配
func (r *ScheduleRepository) DeleteDays(ctx context.Context, scheduleID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM schedule_days WHERE schedule_id = $1", scheduleID)
	if err != nil {
		return fmt.Errorf("删除每日分配失败: %w", err)
	}
	return nil
}

const scheduleSelect = `
	SELECT id, block_start, block_end, status, feasible,
		backbone_score, intern_score, golden_weekends, carry_totals,
		intern_summary, gaps, generated_at, created_at, updated_at
	FROM schedules`

func (r *ScheduleRepository) scanSchedule(row *sql.Row) (*ScheduleRecord, error) {
	rec := &ScheduleRecord{}
	var goldenJSON, carryJSON, summaryJSON, gapsJSON []byte

	err := row.Scan(
		&rec.ID, &rec.BlockStart, &rec.BlockEnd, &rec.Status, &rec.Feasible,
		&rec.BackboneScore, &rec.InternScore, &goldenJSON, &carryJSON,
		&summaryJSON, &gapsJSON, &rec.GeneratedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描排班记录失败: %w", err)
	}
	unmarshalScheduleJSON(rec, goldenJSON, carryJSON, summaryJSON, gapsJSON)
	return rec, nil
}

func (r *ScheduleRepository) scanScheduleRow(rows *sql.Rows) (*ScheduleRecord, error) {
	rec := &ScheduleRecord{}
	var goldenJSON, carryJSON, summaryJSON, gapsJSON []byte

	err := rows.Scan(
		&rec.ID, &rec.BlockStart, &rec.BlockEnd, &rec.Status, &rec.Feasible,
		&rec.BackboneScore, &rec.InternScore, &goldenJSON, &carryJSON,
		&summaryJSON, &gapsJSON, &rec.GeneratedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描排班记录失败: %w", err)
	}
	unmarshalScheduleJSON(rec, goldenJSON, carryJSON, summaryJSON, gapsJSON)
	return rec, nil
}

func unmarshalScheduleJSON(rec *ScheduleRecord, golden, carry, summary, gaps []byte) {
	if len(golden) > 0 {
		json.Unmarshal(golden, &rec.GoldenWeekends)
	}
	if len(carry) > 0 {
		json.Unmarshal(carry, &rec.CarryTotals)
	}
	if len(summary) > 0 {
		json.Unmarshal(summary, &rec.InternSummary)
	}
	if len(gaps) > 0 {
		json.Unmarshal(gaps, &rec.Gaps)
	}
}

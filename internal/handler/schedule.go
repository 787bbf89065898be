// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/internal/repository"
	"github.com/zhiban/zhiban/pkg/engine"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/validator"
)

// ScheduleHandler 排班处理器
type ScheduleHandler struct {
	engine *engine.Engine
	repo   repository.ScheduleRepositoryInterface // 为 nil 时不落库
}

// NewScheduleHandler 创建排班处理器
func NewScheduleHandler(eng *engine.Engine, repo repository.ScheduleRepositoryInterface) *ScheduleHandler {
	return &ScheduleHandler{engine: eng, repo: repo}
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success        bool                            `json:"success"`
	Message        string                          `json:"message,omitempty"`
	ScheduleID     string                          `json:"schedule_id,omitempty"`
	Days           []model.DayAssignment           `json:"days"`
	BackboneScore  *float64                        `json:"backbone_score,omitempty"`
	InternScore    *float64                        `json:"intern_score,omitempty"`
	GoldenWeekends model.GoldenWeekendCounts       `json:"golden_weekends,omitempty"`
	InternSummary  []model.InternSummaryRow        `json:"intern_summary,omitempty"`
	Gaps           []model.CoverageGap             `json:"gaps,omitempty"`
	CarryTotals    map[string]model.PreviousTotals `json:"carry_totals,omitempty"`
	CarryTransition []model.TransitionDay          `json:"carry_transition,omitempty"`
	Iterations     int                             `json:"iterations"`
	Duration       string                          `json:"duration"`
}

// Generate 排班生成API
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	done := metrics.TrackActiveTask()
	res, err := h.engine.Generate(r.Context(), &req)
	done()
	if res != nil {
		metrics.RecordScheduleGeneration("block", err == nil, res.Duration)
	}
	if err != nil {
		// 不可行的区块返回空排班和原因, 输入错误按错误码报错
		if res != nil && (errors.Is(err, errors.CodeNoFeasibleSolution) ||
			errors.Is(err, errors.CodeInsufficientResidents)) {
			respondJSON(w, http.StatusUnprocessableEntity, GenerateResponse{
				Success:  false,
				Message:  err.Error(),
				Days:     []model.DayAssignment{},
				Duration: res.Duration.String(),
			})
			return
		}
		respondError(w, toAppError(err))
		return
	}

	resp := GenerateResponse{
		Success:         true,
		ScheduleID:      res.Schedule.ID.String(),
		Days:            res.Schedule.Days,
		BackboneScore:   res.BackboneScore,
		InternScore:     res.InternScore,
		GoldenWeekends:  res.GoldenWeekends,
		InternSummary:   res.InternSummary,
		Gaps:            res.Gaps,
		CarryTotals:     res.CarryTotals,
		CarryTransition: res.CarryTransition,
		Iterations:      res.Iterations,
		Duration:        res.Duration.String(),
	}

	if res.BackboneScore != nil {
		metrics.SetSolutionScore("backbone", *res.BackboneScore)
	}
	metrics.RecordOptimizerIterations("backbone", res.Iterations)
	if res.InternScore != nil {
		metrics.SetSolutionScore("intern", *res.InternScore)
	}
	for _, g := range res.Gaps {
		metrics.RecordCoverageGap(string(g.Role))
	}

	if h.repo != nil {
		h.persist(r, res)
	}

	respondJSON(w, http.StatusOK, resp)
}

// persist 落库失败只记日志, 不影响响应
func (h *ScheduleHandler) persist(r *http.Request, res *model.GenerationResult) {
	rec := repository.FromResult(res)
	if err := h.repo.Create(r.Context(), rec); err != nil {
		logger.Error().Err(err).Msg("保存排班记录失败")
		return
	}
	if err := h.repo.CreateDays(r.Context(), rec.ID, res.Schedule.Days); err != nil {
		logger.Error().Err(err).Msg("保存每日分配失败")
	}
}

// ValidateRequest 排班校验请求
type ValidateRequest struct {
	engine.Request
	Days []model.DayAssignment `json:"days"`
}

// ValidateResponse 排班校验响应
type ValidateResponse struct {
	IsValid    bool                  `json:"is_valid"`
	Violations []validator.Violation `json:"violations"`
}

// Validate 排班校验API, 供人工改动后复核
func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	sc, err := engine.Normalize(&req.Request, false)
	if err != nil {
		respondError(w, toAppError(err))
		return
	}

	start := time.Now()
	violations := validator.NewAuditor(sc).Audit(req.Days)
	for _, v := range violations {
		metrics.RecordConstraintEvaluation(string(v.Type), false)
	}
	logger.Debug().
		Int("violations", len(violations)).
		Dur("duration", time.Since(start)).
		Msg("排班校验完成")

	respondJSON(w, http.StatusOK, ValidateResponse{
		IsValid:    len(violations) == 0,
		Violations: violations,
	})
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
	})
}

// toAppError 把任意错误转换为应用错误
func toAppError(err error) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.Wrap(err, errors.CodeInternal, "内部错误")
}

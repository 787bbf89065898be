package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/pkg/engine"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
	"github.com/zhiban/zhiban/pkg/stats"
)

// StatsRequest 统计请求
// 无状态接口, 上下文和排班都随请求传入
type StatsRequest struct {
	engine.Request
	Days []model.DayAssignment `json:"days"`
}

// FairnessResponse 公平性响应
type FairnessResponse struct {
	Success bool                  `json:"success"`
	Data    *stats.FairnessReport `json:"data,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// CoverageResponse 覆盖率响应
type CoverageResponse struct {
	Success bool                   `json:"success"`
	Data    *stats.CoverageMetrics `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// StatsHandler 统计处理器
type StatsHandler struct{}

// NewStatsHandler 创建统计处理器
func NewStatsHandler() *StatsHandler {
	return &StatsHandler{}
}

// GetFairness 公平性分析API
func (h *StatsHandler) GetFairness(w http.ResponseWriter, r *http.Request) {
	sc, days, ok := h.decode(w, r)
	if !ok {
		return
	}
	report := stats.BuildFairnessReport(sc, days)
	for _, s := range report.Spreads {
		metrics.SetFairnessSpread(strconv.Itoa(s.PGY), s.Role, float64(s.Spread))
	}
	respondJSON(w, http.StatusOK, FairnessResponse{
		Success: true,
		Data:    report,
	})
}

// GetCoverage 覆盖率分析API
func (h *StatsHandler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	sc, days, ok := h.decode(w, r)
	if !ok {
		return
	}
	m := stats.BuildCoverageMetrics(sc, days, nil)
	metrics.SetCoverageRate("intern", m.InternCoverage)
	metrics.SetCoverageRate("supervisor", m.SupervisorCoverage)
	respondJSON(w, http.StatusOK, CoverageResponse{
		Success: true,
		Data:    m,
	})
}

func (h *StatsHandler) decode(w http.ResponseWriter, r *http.Request) (*scheduler.Context, []model.DayAssignment, bool) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return nil, nil, false
	}

	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return nil, nil, false
	}

	sc, err := engine.Normalize(&req.Request, false)
	if err != nil {
		respondError(w, toAppError(err))
		return nil, nil, false
	}
	return sc, req.Days, true
}

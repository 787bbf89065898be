package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/internal/repository"
	"github.com/zhiban/zhiban/pkg/errors"
)

// ResidentHandler 住院医师花名册维护API
type ResidentHandler struct {
	repo repository.ResidentRepositoryInterface
}

// NewResidentHandler 创建花名册处理器
func NewResidentHandler(repo repository.ResidentRepositoryInterface) *ResidentHandler {
	return &ResidentHandler{repo: repo}
}

// ResidentListResponse 花名册列表响应
type ResidentListResponse struct {
	Residents []*repository.ResidentRecord `json:"residents"`
	Total     int                          `json:"total"`
}

// Residents 花名册集合API: GET 列表 / POST 新建
func (h *ResidentHandler) Residents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET/POST方法"))
	}
}

func (h *ResidentHandler) list(w http.ResponseWriter, r *http.Request) {
	if pgyStr := r.URL.Query().Get("pgy"); pgyStr != "" {
		pgy, err := strconv.Atoi(pgyStr)
		if err != nil || pgy < 1 || pgy > 5 {
			respondError(w, errors.New(errors.CodeInvalidInput, "pgy 参数无效"))
			return
		}
		residents, err := h.repo.ListByPGY(r.Context(), pgy)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询花名册失败"))
			return
		}
		respondJSON(w, http.StatusOK, ResidentListResponse{Residents: residents, Total: len(residents)})
		return
	}

	filter := repository.DefaultListFilter().
		WithStatus(r.URL.Query().Get("status")).
		WithSearch(r.URL.Query().Get("search"))
	residents, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询花名册失败"))
		return
	}
	respondJSON(w, http.StatusOK, ResidentListResponse{Residents: residents, Total: total})
}

func (h *ResidentHandler) create(w http.ResponseWriter, r *http.Request) {
	var rec repository.ResidentRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if rec.Name == "" || rec.PGY < 1 || rec.PGY > 5 {
		respondError(w, errors.New(errors.CodeInvalidInput, "姓名和年级不能为空"))
		return
	}

	existing, err := h.repo.GetByName(r.Context(), rec.Name)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询花名册失败"))
		return
	}
	if existing != nil {
		respondError(w, errors.New(errors.CodeScheduleConflict, "同名住院医师已存在"))
		return
	}

	rec.Active = true
	if err := h.repo.Create(r.Context(), &rec); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建住院医师失败"))
		return
	}
	respondJSON(w, http.StatusCreated, &rec)
}

// Resident 单个住院医师API: GET / PUT / DELETE, id 由查询参数传入
func (h *ResidentHandler) Resident(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "id 参数无效"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := h.repo.GetByID(r.Context(), id)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询住院医师失败"))
			return
		}
		if rec == nil {
			respondError(w, errors.New(errors.CodeNotFound, "住院医师不存在"))
			return
		}
		respondJSON(w, http.StatusOK, rec)
	case http.MethodPut:
		var rec repository.ResidentRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
			return
		}
		rec.ID = id
		if err := h.repo.Update(r.Context(), &rec); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "更新住院医师失败"))
			return
		}
		respondJSON(w, http.StatusOK, &rec)
	case http.MethodDelete:
		if err := h.repo.Delete(r.Context(), id); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "删除住院医师失败"))
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "不支持的方法"))
	}
}

package handler

import (
	"net/http"

	"github.com/zhiban/zhiban/internal/constraints"
	"github.com/zhiban/zhiban/pkg/errors"
)

// LibraryHandler 规则库查询API
// 可选 stage / name 查询参数过滤
func LibraryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	if name := r.URL.Query().Get("name"); name != "" {
		def, ok := constraints.GetByName(name)
		if !ok {
			respondError(w, errors.New(errors.CodeNotFound, "规则不存在: "+name))
			return
		}
		respondJSON(w, http.StatusOK, def)
		return
	}

	library := constraints.GetLibrary()
	if stage := r.URL.Query().Get("stage"); stage != "" {
		library = constraints.GetByStage(stage)
	}

	respondJSON(w, http.StatusOK, constraints.LibraryResponse{Library: library})
}

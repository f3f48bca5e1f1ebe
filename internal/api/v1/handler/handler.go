package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// resolveUser picks the effective user: a verified identity from the request
// context wins over any client-supplied ID.
func resolveUser(r *http.Request, explicit string) string {
	if id := middleware.UserID(r); id != "" && id != "anonymous" {
		return id
	}
	return explicit
}

// writeGuardError maps the safety sentinels onto their status codes and
// reports whether err was one of them.
func writeGuardError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, service.ErrUserBlocked):
		writeError(w, http.StatusForbidden, "账号已被限制使用")
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
	case errors.Is(err, service.ErrUnsafeContent):
		writeError(w, http.StatusBadRequest, "输入内容包含不允许的词汇")
	default:
		return false
	}
	return true
}

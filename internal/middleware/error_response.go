package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/cityportal/internal/model"
	"github.com/hitoshi/cityportal/internal/view"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse は統一エラーフォーマットでJSONのエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は内部サーバーエラーのJSONレスポンスを書き込む。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "internal error",
		Category: "system",
		Action:   "Please retry later.",
	})
}

// WriteErrorPage はステータスに対応するエラーページを書き込む。
// /api/配下のリクエストにはJSONを返す。
func WriteErrorPage(w http.ResponseWriter, r *http.Request, status int) {
	if isAPIRequest(r) {
		WriteErrorResponse(w, status, apiErrorForStatus(status))
		return
	}

	if err := view.Render(r.Context(), w, status, "error_page", view.ErrorPage(status)); err != nil {
		slog.Error("failed to render error page",
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(status), status)
	}
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func apiErrorForStatus(status int) *model.APIError {
	switch status {
	case http.StatusForbidden:
		return &model.APIError{
			Code:     model.ErrCodePermissionDenied,
			Message:  "permission denied",
			Category: "auth",
			Action:   "Sign in with an account that has access.",
		}
	case http.StatusNotFound:
		return &model.APIError{
			Code:     "NOT_FOUND",
			Message:  "not found",
			Category: "validation",
			Action:   "Check the request path.",
		}
	case http.StatusTooManyRequests:
		return &model.APIError{
			Code:     "RATE_LIMIT_EXCEEDED",
			Message:  "too many requests",
			Category: "system",
			Action:   "Please wait and retry after the specified time.",
		}
	default:
		return &model.APIError{
			Code:     "INTERNAL_ERROR",
			Message:  "internal error",
			Category: "system",
			Action:   "Please retry later.",
		}
	}
}

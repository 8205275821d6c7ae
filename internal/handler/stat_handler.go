package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cityportal/internal/middleware"
	"github.com/hitoshi/cityportal/internal/model"
	"github.com/hitoshi/cityportal/internal/pagestat"
)

// StatServiceInterface は統計APIハンドラーが必要とするインターフェース。
// pagestat.Counterが実装する。
type StatServiceInterface interface {
	Lookup(ctx context.Context, key pagestat.Key) (*model.StatPage, error)
	AddEngagement(ctx context.Context, key pagestat.Key, height float64, seconds int64) (*model.StatPage, error)
}

// StatHandler はページビュー統計のJSON APIハンドラー。
type StatHandler struct {
	service StatServiceInterface
}

// NewStatHandler はStatHandlerを生成する。
func NewStatHandler(service StatServiceInterface) *StatHandler {
	return &StatHandler{service: service}
}

// maxEngagementBodyBytes はエンゲージメント申告ボディの上限。
const maxEngagementBodyBytes = 4 << 10

// engagementRequest はエンゲージメント申告のリクエストボディ。
type engagementRequest struct {
	ObjectID string  `json:"object_id"`
	Height   float64 `json:"height"`
	Seconds  int64   `json:"seconds"`
}

// statResponse は統計行のAPIレスポンス。
type statResponse struct {
	Type     int16   `json:"type"`
	ObjectID string  `json:"object_id"`
	View     int64   `json:"view"`
	Unique   int64   `json:"unique"`
	Height   float64 `json:"height"`
	Seconds  int64   `json:"seconds"`
}

// Get は統計行を返す。閲覧数は加算しない。
// GET /api/stats/{type}?object_id=xxx
func (h *StatHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, ok := statKey(w, r, r.URL.Query().Get("object_id"))
	if !ok {
		return
	}

	stat, err := h.service.Lookup(r.Context(), key)
	if err != nil {
		handleStatError(w, err)
		return
	}
	if stat == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewStatNotFoundError(key.Type, key.ObjectID))
		return
	}

	writeJSON(w, http.StatusOK, toStatResponse(stat))
}

// Engagement はクライアント申告のスクロール量と滞在秒数を既存の統計行に加算する。
// POST /api/stats/{type}/engagement
func (h *StatHandler) Engagement(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEngagementBodyBytes)

	var req engagementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reason := "malformed JSON body"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			reason = "body too large"
		}
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidEngagementError(reason))
		return
	}

	key, ok := statKey(w, r, req.ObjectID)
	if !ok {
		return
	}

	stat, err := h.service.AddEngagement(r.Context(), key, req.Height, req.Seconds)
	if err != nil {
		handleStatError(w, err)
		return
	}
	if stat == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewStatNotFoundError(key.Type, key.ObjectID))
		return
	}

	writeJSON(w, http.StatusOK, toStatResponse(stat))
}

// statKey はURLのページ種別とオブジェクトIDからキーを組み立てる。
// 種別が不正な場合は400を書き込みfalseを返す。
func statKey(w http.ResponseWriter, r *http.Request, objectID string) (pagestat.Key, bool) {
	raw := chi.URLParam(r, "type")
	n, err := strconv.ParseInt(raw, 10, 16)
	if err != nil || !model.PageType(n).Valid() {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidPageTypeError(raw))
		return pagestat.Key{}, false
	}
	return pagestat.ObjectKey(model.PageType(n), objectID), true
}

// handleStatError はサービスエラーをHTTPレスポンスに変換する。
func handleStatError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	slog.Error("stat request failed", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

func toStatResponse(s *model.StatPage) statResponse {
	return statResponse{
		Type:     int16(s.Types),
		ObjectID: s.ObjectID,
		View:     s.View,
		Unique:   s.NowU,
		Height:   s.Height,
		Seconds:  s.Seconds,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to write JSON response", slog.String("error", err.Error()))
	}
}

package model

import (
	"errors"
	"fmt"
)

// ErrNotFound は対象のレコードが存在しないことを表す。
var ErrNotFound = errors.New("not found")

// APIError はJSONエンドポイントの統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, stat, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidPageType  = "INVALID_PAGE_TYPE"
	ErrCodeStatNotFound     = "STAT_NOT_FOUND"
	ErrCodeInvalidEngage    = "INVALID_ENGAGEMENT"
	ErrCodePermissionDenied = "PERMISSION_DENIED"
)

// NewInvalidPageTypeError はページ種別が不正な場合のエラーを生成する。
func NewInvalidPageTypeError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPageType,
		Message:  fmt.Sprintf("invalid page type: %s", raw),
		Category: "validation",
		Action:   "Use a numeric page type.",
	}
}

// NewStatNotFoundError は統計行が存在しない場合のエラーを生成する。
func NewStatNotFoundError(pageType PageType, objectID string) *APIError {
	return &APIError{
		Code:     ErrCodeStatNotFound,
		Message:  fmt.Sprintf("no statistics for page type %d (object %q)", pageType, objectID),
		Category: "stat",
		Action:   "Open the page at least once before reporting engagement.",
	}
}

// NewInvalidEngagementError はエンゲージメント値が不正な場合のエラーを生成する。
func NewInvalidEngagementError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEngage,
		Message:  fmt.Sprintf("invalid engagement report: %s", reason),
		Category: "validation",
		Action:   "Send non-negative height and seconds.",
	}
}

// ValidationError はフォーム入力の検証エラー。
type ValidationError struct {
	Field  string
	Reason string
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError はValidationErrorを生成する。
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Package audience はリクエストの閲覧者（端末種別・読み込みモード・認証状態）を判定し、
// 描画すべきビューバリアントを決定する。
package audience

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// Device はクライアント端末の種別。
type Device int

const (
	// DeviceDesktop はデスクトップ端末。判定不能時のデフォルト。
	DeviceDesktop Device = iota
	// DeviceMobile はモバイル端末。
	DeviceMobile
)

// String はログ・メトリクス用のラベルを返す。
func (d Device) String() string {
	if d == DeviceMobile {
		return "mobile"
	}
	return "desktop"
}

// mobileMarker はモバイル判定に使うUser-Agentの部分文字列。大文字小文字を区別する。
const mobileMarker = "Mobile"

// ClassificationError は端末判定に必要な情報が欠けていることを表す。
type ClassificationError struct {
	Reason string
}

// Error はerrorインターフェースを実装する。
func (e *ClassificationError) Error() string {
	return "classification failed: " + e.Reason
}

// ErrMissingUserAgent はUser-Agentヘッダーが存在しない場合のエラー。
var ErrMissingUserAgent = &ClassificationError{Reason: "missing user agent"}

// ClassifyDevice はUser-Agent文字列から端末種別を判定する。
// presentがfalseの場合はErrMissingUserAgentを返す。
func ClassifyDevice(userAgent string, present bool) (Device, error) {
	if !present {
		return DeviceDesktop, ErrMissingUserAgent
	}
	if strings.Contains(userAgent, mobileMarker) {
		return DeviceMobile, nil
	}
	return DeviceDesktop, nil
}

// DeviceFromRequest はリクエストの端末種別を返す。
// User-Agentが無い場合はDeviceDesktopにフォールバックする。
func DeviceFromRequest(r *http.Request) Device {
	values, present := r.Header["User-Agent"]
	ua := ""
	if present && len(values) > 0 {
		ua = values[0]
	}

	device, err := ClassifyDevice(ua, present && len(values) > 0)
	if err != nil {
		var ce *ClassificationError
		if errors.As(err, &ce) {
			slog.Debug("device classification recovered to default",
				slog.String("reason", ce.Reason),
				slog.String("path", r.URL.Path),
			)
		}
		return DeviceDesktop
	}
	return device
}

package audience

import "net/http"

// RequestContext は1リクエスト分の判定結果。レスポンス後に破棄される。
type RequestContext struct {
	Device    Device
	Mode      Mode
	Principal *Identity
}

// FromRequest はリクエストから端末種別・モード・ログインユーザーを判定する。
// Principalはセッションミドルウェアがコンテキストに格納したものを使う。
func FromRequest(r *http.Request) *RequestContext {
	return &RequestContext{
		Device:    DeviceFromRequest(r),
		Mode:      ModeFromRequest(r),
		Principal: IdentityFromContext(r.Context()),
	}
}

// SignedIn はログイン済みかどうかを返す。
func (rc *RequestContext) SignedIn() bool {
	return rc.Principal != nil
}

// Variant は判定結果から描画バリアントを返す。
func (rc *RequestContext) Variant() Variant {
	return SelectVariant(rc.Mode, rc.SignedIn(), rc.Device)
}

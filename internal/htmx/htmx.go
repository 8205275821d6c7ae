// Package htmx はhtmxのリクエスト判定とリダイレクトを扱う。
package htmx

import "net/http"

const (
	HeaderHXRequest  = "HX-Request"
	HeaderHXRedirect = "HX-Redirect"
	HeaderHXTarget   = "HX-Target"
)

// IsHTMX はhtmxから発行されたリクエストかどうかを返す。
func IsHTMX(r *http.Request) bool {
	return r.Header.Get(HeaderHXRequest) == "true"
}

// Redirect はフォーム送信後のリダイレクトを行う。
// htmxリクエストにはHX-Redirectヘッダーと200を、それ以外には303 See Otherを返す。
func Redirect(w http.ResponseWriter, r *http.Request, targetURL string) {
	if IsHTMX(r) {
		w.Header().Set(HeaderHXRedirect, targetURL)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, targetURL, http.StatusSeeOther)
}

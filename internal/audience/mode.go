package audience

import "net/http"

// Mode はリクエストの読み込みモード。
type Mode int

const (
	// ModeFullLoad はページ全体（シェル）の読み込み。
	ModeFullLoad Mode = iota
	// ModeFragment はページ内からの部分読み込み。
	ModeFragment
)

// String はログ・メトリクス用のラベルを返す。
func (m Mode) String() string {
	if m == ModeFragment {
		return "fragment"
	}
	return "full"
}

const (
	// AjaxQueryParam は部分読み込みを示すクエリパラメータ。
	AjaxQueryParam = "is_ajax"
	// HeaderHXRequest はhtmxが部分読み込み時に付与するヘッダー。
	HeaderHXRequest = "HX-Request"
)

// ClassifyMode はフラグ値から読み込みモードを判定する。
// 空または"0"はModeFullLoad、それ以外はModeFragment。
func ClassifyMode(flag string) Mode {
	if flag == "" || flag == "0" {
		return ModeFullLoad
	}
	return ModeFragment
}

// ModeFromRequest はクエリパラメータis_ajaxとHX-Requestヘッダーからモードを判定する。
// is_ajaxが非ゼロ、またはHX-Requestが"true"ならModeFragment。
func ModeFromRequest(r *http.Request) Mode {
	if ClassifyMode(r.URL.Query().Get(AjaxQueryParam)) == ModeFragment {
		return ModeFragment
	}
	if r.Header.Get(HeaderHXRequest) == "true" {
		return ModeFragment
	}
	return ModeFullLoad
}

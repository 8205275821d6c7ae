package audience

// Variant は描画するビューの種類。
type Variant int

const (
	// VariantFullShell は最小限のページシェル。内容は続く部分読み込みで描画する。
	VariantFullShell Variant = iota
	// VariantAuthenticatedDesktop はログイン済み・デスクトップ向けの部分ビュー。
	VariantAuthenticatedDesktop
	// VariantAuthenticatedMobile はログイン済み・モバイル向けの部分ビュー。
	VariantAuthenticatedMobile
	// VariantAnonymousDesktop は未ログイン・デスクトップ向けの部分ビュー。
	VariantAnonymousDesktop
	// VariantAnonymousMobile は未ログイン・モバイル向けの部分ビュー。
	VariantAnonymousMobile
)

var variantNames = map[Variant]string{
	VariantFullShell:            "full_shell",
	VariantAuthenticatedDesktop: "authenticated_desktop",
	VariantAuthenticatedMobile:  "authenticated_mobile",
	VariantAnonymousDesktop:     "anonymous_desktop",
	VariantAnonymousMobile:      "anonymous_mobile",
}

// String はログ・メトリクス用のラベルを返す。
func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return "unknown"
}

// IsFragment は部分ビューかどうかを返す。
func (v Variant) IsFragment() bool {
	return v != VariantFullShell
}

// IsAuthenticated はログイン済み向けのバリアントかどうかを返す。
func (v Variant) IsAuthenticated() bool {
	return v == VariantAuthenticatedDesktop || v == VariantAuthenticatedMobile
}

// IsMobile はモバイル向けのバリアントかどうかを返す。
func (v Variant) IsMobile() bool {
	return v == VariantAuthenticatedMobile || v == VariantAnonymousMobile
}

// SelectVariant はモード・認証状態・端末種別からバリアントを決定する純粋関数。
//
//	(Fragment, signed in, Desktop) -> AuthenticatedDesktop
//	(Fragment, signed in, Mobile)  -> AuthenticatedMobile
//	(Fragment, anonymous, Desktop) -> AnonymousDesktop
//	(Fragment, anonymous, Mobile)  -> AnonymousMobile
//	(FullLoad, *, *)               -> FullShell
func SelectVariant(mode Mode, signedIn bool, device Device) Variant {
	if mode != ModeFragment {
		return VariantFullShell
	}
	switch {
	case signedIn && device == DeviceMobile:
		return VariantAuthenticatedMobile
	case signedIn:
		return VariantAuthenticatedDesktop
	case device == DeviceMobile:
		return VariantAnonymousMobile
	default:
		return VariantAnonymousDesktop
	}
}

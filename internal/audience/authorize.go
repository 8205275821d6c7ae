package audience

import "errors"

// ErrPermissionDenied は権限チェックに失敗したことを表す。
// 未ログイン・権限不足・所有者不一致のいずれでも同じ値を返し、理由を区別しない。
var ErrPermissionDenied = errors.New("permission denied")

// RequireSignedIn はログイン済みであることを要求する。
func RequireSignedIn(id *Identity) error {
	if id == nil {
		return ErrPermissionDenied
	}
	return nil
}

// RequireLevel は指定以上の権限レベルを要求する。
func RequireLevel(id *Identity, min int) error {
	if id == nil || id.Level < min {
		return ErrPermissionDenied
	}
	return nil
}

// RequireSuperuser はスーパーユーザーであることを要求する。
func RequireSuperuser(id *Identity) error {
	if id == nil || !id.IsSuperuser {
		return ErrPermissionDenied
	}
	return nil
}

// RequireOwnerOrSuperuser はリソースの所有者またはスーパーユーザーであることを要求する。
func RequireOwnerOrSuperuser(id *Identity, ownerID string) error {
	if id == nil {
		return ErrPermissionDenied
	}
	if id.IsSuperuser || id.Level >= SuperuserLevel {
		return nil
	}
	if ownerID != "" && id.ID == ownerID {
		return nil
	}
	return ErrPermissionDenied
}

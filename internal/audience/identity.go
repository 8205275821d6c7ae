package audience

import "context"

// SuperuserLevel はスーパーユーザーとみなす権限レベル。
const SuperuserLevel = 60

// Identity はログイン中のユーザーを表す。セッション層から供給され、このパッケージでは読み取り専用。
type Identity struct {
	ID          string
	Name        string
	Level       int
	IsSuperuser bool
}

// NewIdentity は権限レベルからスーパーユーザーフラグを導出してIdentityを生成する。
func NewIdentity(id, name string, level int) *Identity {
	return &Identity{
		ID:          id,
		Name:        name,
		Level:       level,
		IsSuperuser: level >= SuperuserLevel,
	}
}

type identityKey struct{}

// ContextWithIdentity はコンテキストにIdentityを格納する。nilは未ログインを表す。
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext はコンテキストからIdentityを取り出す。未ログインの場合はnil。
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// IsSignedIn はログイン済みかどうかを返す。
func IsSignedIn(ctx context.Context) bool {
	return IdentityFromContext(ctx) != nil
}

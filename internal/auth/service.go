// Package auth は電話番号とパスワードによる認証、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/model"
	"github.com/hitoshi/cityportal/internal/repository"
)

var (
	// ErrInvalidCredentials は電話番号またはパスワードが誤っていることを表す。
	// どちらが誤っているかは区別しない。
	ErrInvalidCredentials = errors.New("invalid phone or password")
	// ErrPhoneTaken は電話番号が既に登録されていることを表す。
	ErrPhoneTaken = errors.New("phone already registered")
)

const (
	minPasswordLength = 8
	maxNameLength     = 100
	defaultPerm       = 1

	// maxPasswordBytes はbcryptが扱える入力の上限（バイト数）。
	maxPasswordBytes = 72
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
	BcryptCost    int // 0の場合はbcrypt.DefaultCost
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
	// dummyHash は存在しない電話番号でも照合時間を揃えるためのハッシュ
	dummyHash []byte
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) (*Service, error) {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("placeholder-password"), config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hasher: %w", err)
	}

	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
		dummyHash:   dummy,
	}, nil
}

// SignupInput は新規登録フォームの値。
type SignupInput struct {
	Name     string
	Phone    string
	Password string
}

// Signup はユーザーを登録し、セッションを発行する。
func (s *Service) Signup(ctx context.Context, in SignupInput) (*model.Session, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return nil, model.NewValidationError("name", "имя обязательно, не длиннее 100 символов")
	}
	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return nil, model.NewValidationError("password", "пароль должен быть не короче 8 символов")
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, model.NewValidationError("password", "пароль слишком длинный")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Phone:        phone,
		Name:         name,
		PasswordHash: string(hash),
		Perm:         defaultPerm,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrPhoneTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered", slog.String("user_id", user.ID))

	return s.createSession(ctx, user.ID)
}

// Login は電話番号とパスワードを照合し、セッションを発行する。
// 電話番号が存在しない場合もハッシュ照合を行い、応答時間で存在を推測できないようにする。
func (s *Service) Login(ctx context.Context, rawPhone, password string) (*model.Session, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Info("login failed", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return s.createSession(ctx, user.ID)
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// ResolveIdentity はセッションIDからログイン中のユーザーを返す。
// セッションが無い・期限切れの場合は (nil, nil)。問い合わせ失敗はエラーとして返す。
func (s *Service) ResolveIdentity(ctx context.Context, sessionID string) (*audience.Identity, error) {
	if sessionID == "" {
		return nil, nil
	}

	user, err := s.sessionRepo.FindActiveUser(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	return audience.NewIdentity(user.ID, user.Name, user.Perm), nil
}

// NormalizePhone は電話番号から区切り文字を除き、数字のみの形式にする。
// 先頭の「8」で始まる11桁のロシア国内形式は「7」に揃える。
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r) && r < utf8.RuneSelf:
			b.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", model.NewValidationError("phone", "недопустимые символы в номере")
		}
	}

	digits := b.String()
	if len(digits) < 10 || len(digits) > 15 {
		return "", model.NewValidationError("phone", "номер должен содержать от 10 до 15 цифр")
	}
	if len(digits) == 11 && digits[0] == '8' {
		digits = "7" + digits[1:]
	}
	return digits, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

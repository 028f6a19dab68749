package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/SagarBarate/CleanNFT-sub001/internal/config"
	"github.com/SagarBarate/CleanNFT-sub001/internal/dto"
	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
	"github.com/SagarBarate/CleanNFT-sub001/internal/repository"
	"github.com/SagarBarate/CleanNFT-sub001/pkg/logger"
)

var ErrEmailTaken = errors.New("email already registered")

// Claims JWT 负载
type Claims struct {
	UserID string   `json:"uid"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// AuthService 认证服务接口
type AuthService interface {
	// Register 注册用户
	Register(ctx context.Context, req *dto.RegisterRequest) (*model.User, error)

	// Login 登录，颁发 JWT 并登记会话
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)

	// Validate 校验 token: 签名有效且会话未被注销
	Validate(ctx context.Context, token string) (*Claims, error)

	// Logout 注销会话
	Logout(ctx context.Context, token string) error
}

type authService struct {
	userRepo repository.UserRepository
	cfg      config.AuthConfig
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo repository.UserRepository, cfg config.AuthConfig) AuthService {
	return &authService{userRepo: userRepo, cfg: cfg}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*model.User, error) {
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Nickname:     req.Nickname,
		Roles:        string(model.RoleUser),
		Status:       model.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, dto.ErrInvalidCredential
		}
		return nil, err
	}

	if user.Status != model.UserStatusActive {
		return nil, dto.ErrUserDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, dto.ErrInvalidCredential
	}

	expiresAt := time.Now().Add(time.Duration(s.cfg.JWTExpireHours) * time.Hour)

	roles := make([]string, 0, 2)
	for _, r := range user.RoleList() {
		roles = append(roles, string(r))
	}

	claims := &Claims{
		UserID: user.ID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.CreateSession(ctx, &model.Session{
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt.UnixMilli(),
	}); err != nil {
		return nil, err
	}

	s.audit(ctx, user.ID, model.AuditActionLogin)

	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UnixMilli(),
		UserID:    user.ID,
		Roles:     roles,
	}, nil
}

func (s *authService) Validate(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, dto.ErrUnauthorized
	}

	// 注销过的会话立即失效，不等 token 过期
	session, err := s.userRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, dto.ErrUnauthorized
		}
		return nil, err
	}
	if session.ExpiresAt < time.Now().UnixMilli() {
		return nil, dto.ErrUnauthorized
	}

	return claims, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	session, err := s.userRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if err := s.userRepo.DeleteSessionByTokenHash(ctx, hashToken(token)); err != nil {
		return err
	}

	s.audit(ctx, session.UserID, model.AuditActionLogout)
	return nil
}

// audit 登录注销走审计流水，写入失败只记日志
func (s *authService) audit(ctx context.Context, userID, action string) {
	entry := &model.AuditLog{
		ActorID:      userID,
		Action:       action,
		ResourceType: "session",
		ResourceID:   userID,
		Status:       model.AuditStatusSuccess,
	}
	if err := s.userRepo.CreateAuditLog(ctx, entry); err != nil {
		logger.Error("write audit log failed", "action", action, "error", err)
	}
}

// hashToken 会话表只存 token 摘要
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

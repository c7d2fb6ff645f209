package services

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/yachtly/charter-service/internal/dtos"
	"github.com/yachtly/charter-service/internal/repositories"
	"github.com/yachtly/charter-service/internal/utils"
)

type UserService interface {
	GetPhoneStatus(ctx context.Context, userID uuid.UUID) (*dtos.PhoneStatusResponse, error)
}

type userService struct {
	users repositories.UserRepository
}

func NewUserService(users repositories.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) GetPhoneStatus(ctx context.Context, userID uuid.UUID) (*dtos.PhoneStatusResponse, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, "User not found", utils.ErrNotFound)
	}
	return &dtos.PhoneStatusResponse{PhoneNumber: u.PhoneNumber, PhoneVerified: u.PhoneVerified}, nil
}

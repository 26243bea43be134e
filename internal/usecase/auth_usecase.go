package usecase

import (
	"context"
	"strings"

	"proofhire-backend/internal/domain"
	"proofhire-backend/pkg/apperror"
)

type authUsecase struct {
	userRepo domain.UserRepository
}

func NewAuthUsecase(userRepo domain.UserRepository) domain.AuthUsecase {
	return &authUsecase{userRepo: userRepo}
}

// ResolvePrincipal provisions a first-seen identity as USER. The role always
// comes from the users table, never from the token.
func (u *authUsecase) ResolvePrincipal(ctx context.Context, userID, email string) (*domain.Principal, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("User not authenticated")
	}
	stored, err := u.userRepo.EnsureExists(ctx, &domain.User{
		ID:    userID,
		Email: strings.ToLower(strings.TrimSpace(email)),
		Role:  domain.RoleUser,
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	principalEmail := stored.Email
	if principalEmail == "" {
		principalEmail = email
	}
	return &domain.Principal{
		UserID: stored.ID,
		Email:  principalEmail,
		Role:   domain.ParseRole(string(stored.Role)),
	}, nil
}

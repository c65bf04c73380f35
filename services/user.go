package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/logging"
	"trello-project/tracking-service/models"
	"trello-project/tracking-service/stores"
	"trello-project/tracking-service/utils"
)

type UserService struct {
	users stores.UserStore
}

func NewUserService(users stores.UserStore) *UserService {
	return &UserService{users: users}
}

// Register creates an account with a hashed password. The role defaults to
// Member when omitted.
func (s *UserService) Register(ctx context.Context, name, email, password string, role models.GlobalRole) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, errs.ValidationFailed("name and email are required")
	}
	if len(password) < 8 {
		return nil, errs.ValidationFailed("password must be at least 8 characters")
	}
	if role == "" {
		role = models.RoleMember
	}
	switch role {
	case models.RoleAdmin, models.RoleProjectManager, models.RoleMember:
	default:
		return nil, errs.ValidationFailed("unknown role %q", role)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, errs.Internal(err, "failed to hash password")
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     role,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}

	logging.Logger.Infof("Registered user %s (%s)", user.Email, user.ID.Hex())
	return user, nil
}

// Login verifies the credentials and issues a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errs.IsKind(err, errs.KindNotFound) {
			return "", nil, errs.Unauthorized("invalid email or password")
		}
		return "", nil, err
	}
	if !utils.CheckPassword(user.Password, password) {
		return "", nil, errs.Unauthorized("invalid email or password")
	}

	token, err := utils.GenerateToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		return "", nil, errs.Internal(err, "failed to sign token")
	}
	return token, user, nil
}

func (s *UserService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	return s.users.FindAll(ctx)
}

package service

import (
	"context"
	"strings"

	"inkpress/internal/models"
	"inkpress/internal/repository"
	"inkpress/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Signup registers a user with role "user".
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	var fields []models.FieldError
	if err := validation.ValidateUsername(username); err != nil {
		fields = append(fields, models.FieldError{Field: "username", Tag: "username", Message: err.Error()})
	}
	email, err := validation.NormalizeEmail(in.Email)
	if err != nil {
		fields = append(fields, models.FieldError{Field: "email", Tag: "email", Message: err.Error()})
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		fields = append(fields, models.FieldError{Field: "password", Tag: "password", Message: err.Error()})
	}
	if len(fields) > 0 {
		return nil, models.NewValidationError("Validation failed", fields...)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: username,
		Email:    email,
		Password: hashed,
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, page repository.Page) ([]models.User, error) {
	return s.userRepo.List(ctx, page)
}

func (s *UserService) ListByRole(ctx context.Context, role string, page repository.Page) ([]models.User, error) {
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, models.NewBadRequestError(err.Error())
	}
	return s.userRepo.ListByRole(ctx, r, page)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *UserService) SetRole(ctx context.Context, actor *models.User, targetID uint, role string) (*models.User, error) {
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, models.NewBadRequestError(err.Error())
	}
	if actor != nil && actor.ID == targetID && r != models.RoleAdmin {
		return nil, models.NewForbiddenError("Admins cannot demote themselves")
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateRole(ctx, targetID, r); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, targetID)
}

// EnsureAdmin creates the admin account if it is missing and promotes it otherwise.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (*models.User, error) {
	email, err := validation.NormalizeEmail(email)
	if err != nil {
		return nil, models.NewBadRequestError(err.Error())
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Role != models.RoleAdmin {
			if err := s.userRepo.UpdateRole(ctx, existing.ID, models.RoleAdmin); err != nil {
				return nil, err
			}
			existing.Role = models.RoleAdmin
		}
		return existing, nil
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	admin := &models.User{
		Username: adminUsername(email),
		Email:    email,
		Password: hashed,
		Role:     models.RoleAdmin,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

func adminUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, r := range local {
		if r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if len(name) < 3 {
		name = "admin"
	}
	if len(name) > 30 {
		name = name[:30]
	}
	return name
}

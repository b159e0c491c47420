package service

import (
	"context"
	"net/mail"
	"strings"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo   repository.UserRepository
	bcryptCost int
}

type SignupInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func (s *UserService) WithBcryptCost(cost int) *UserService {
	s.bcryptCost = cost
	return s
}

// Signup validates and registers a new user.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, models.NewValidationError("Enter a valid email address.")
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hash),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username (or email) and password pair. Unknown users
// and wrong passwords produce the same Unauthorized error.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var (
		user *models.User
		err  error
	)
	if strings.Contains(login, "@") && !strings.HasPrefix(login, "@") {
		user, err = s.userRepo.GetByEmail(ctx, login)
		if models.IsCode(err, models.CodeNotFound) {
			user, err = s.userRepo.GetByUsername(ctx, login)
		}
	} else {
		user, err = s.userRepo.GetByUsername(ctx, login)
	}
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Please enter a correct username and password.")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, models.NewUnauthorizedError("Please enter a correct username and password.")
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

// SetAdmin grants or revokes admin rights by username.
func (s *UserService) SetAdmin(ctx context.Context, username string, isAdmin bool) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetAdmin(ctx, user.ID, isAdmin); err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin
	return user, nil
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListAdmins(ctx)
}

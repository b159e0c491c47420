package server

import (
	"errors"

	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SignupPage shows the registration form.
func (s *Server) SignupPage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "signup", fiber.Map{
		"Form":   &forms.SignupForm{},
		"Errors": forms.Errors{},
	})
}

// SignupSubmit registers the user, logs them in and goes to the home page.
func (s *Server) SignupSubmit(c *fiber.Ctx) error {
	var form forms.SignupForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	errs := form.Validate()
	rerender := func() error {
		form.Password = ""
		return s.render(c, fiber.StatusOK, "signup", fiber.Map{"Form": &form, "Errors": errs})
	}
	if errs.Any() {
		return rerender()
	}

	user, err := s.userService.Signup(c.UserContext(), service.SignupInput{
		Username:  form.Username,
		Email:     form.Email,
		Password:  form.Password,
		FirstName: form.FirstName,
		LastName:  form.LastName,
	})
	switch {
	case err == nil:
	case models.IsCode(err, models.CodeConflict):
		errs.Add("username", "A user with that username or email already exists.")
		return rerender()
	case formErrorsFrom(err, errs, ""):
		return rerender()
	default:
		return err
	}

	if _, err := s.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// LoginPage shows the login form.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "login", fiber.Map{
		"Form":   &forms.LoginForm{Next: forms.SafeNext(c.Query("next"))},
		"Errors": forms.Errors{},
	})
}

// LoginSubmit checks the credentials and continues to the page the visitor
// was originally after.
func (s *Server) LoginSubmit(c *fiber.Ctx) error {
	var form forms.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	errs := form.Validate()
	rerender := func() error {
		form.Password = ""
		return s.render(c, fiber.StatusOK, "login", fiber.Map{"Form": &form, "Errors": errs})
	}
	if errs.Any() {
		return rerender()
	}

	user, err := s.userService.Authenticate(c.UserContext(), form.Username, form.Password)
	if err != nil {
		if models.IsCode(err, models.CodeUnauthorized) {
			var appErr *models.AppError
			if errors.As(err, &appErr) {
				errs.Add("", appErr.Message)
			}
			return rerender()
		}
		return err
	}

	if _, err := s.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect(forms.SafeNext(form.Next), fiber.StatusFound)
}

// Logout revokes the current token and clears the session cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.revokeToken(c.UserContext(), middleware.TokenFromRequest(c))
	s.clearSessionCookie(c)
	return c.Redirect("/", fiber.StatusFound)
}

type signupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body signupRequest true "Signup request"
// @Success 201 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Signup(c.UserContext(), service.SignupInput(req))
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate with a username or email and return a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Login credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Username == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username and password are required"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

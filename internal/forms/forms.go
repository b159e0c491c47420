// Package forms binds and validates the HTML forms: posts, comments,
// signup and login. Field errors are kept per field so templates can
// render them next to the inputs.
package forms

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"yatube/internal/validation"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return validation.ValidateUsername(fl.Field().String()) == nil
		})
		_ = validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return validation.ValidatePassword(fl.Field().String()) == nil
		})
	})
	return validate
}

// Errors maps a form field name to its message. The empty key holds
// errors that belong to the whole form.
type Errors map[string]string

// Field returns the message for name, or "".
func (e Errors) Field(name string) string {
	return e[name]
}

// NonField returns the form-wide message, or "".
func (e Errors) NonField() string {
	return e[""]
}

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) Any() bool {
	return len(e) > 0
}

// check runs struct validation on form and converts failures to messages.
func check(form interface{}) Errors {
	errs := Errors{}
	err := validatorInstance().Struct(form)
	if err == nil {
		return errs
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add("", err.Error())
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "password":
		return fmt.Sprintf("This password is too short or entirely numeric. It must contain at least %d characters.", validation.MinPasswordLength)
	case "numeric":
		return "Select a valid choice. That choice is not one of the available choices."
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}

// PostForm is the create and edit form for posts.
type PostForm struct {
	Text       string `form:"text" validate:"required,max=50000"`
	Group      string `form:"group" validate:"omitempty,numeric"`
	ClearImage bool   `form:"image-clear"`
}

var postLabels = map[string]string{
	"text":  "Text",
	"group": "Group",
	"image": "Image",
}

var postHelpTexts = map[string]string{
	"text":  "Text of the new post",
	"group": "Group the post belongs to",
	"image": "Picture attached to the post",
}

// Label returns the display label for a PostForm field.
func (PostForm) Label(field string) string {
	return postLabels[field]
}

// HelpText returns the hint shown under a PostForm field.
func (PostForm) HelpText(field string) string {
	return postHelpTexts[field]
}

func (f *PostForm) Validate() Errors {
	f.Text = strings.TrimSpace(f.Text)
	f.Group = strings.TrimSpace(f.Group)
	return check(f)
}

// GroupID returns the selected group, or nil for "no group".
func (f *PostForm) GroupID() *uint {
	if f.Group == "" {
		return nil
	}
	id, err := strconv.ParseUint(f.Group, 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	v := uint(id)
	return &v
}

// SelectedGroup reports whether id is the chosen group, for <option selected>.
func (f *PostForm) SelectedGroup(id uint) bool {
	return f.Group == strconv.FormatUint(uint64(id), 10)
}

type CommentForm struct {
	Text string `form:"text" validate:"required,max=10000"`
}

func (f *CommentForm) Validate() Errors {
	f.Text = strings.TrimSpace(f.Text)
	return check(f)
}

type SignupForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"required,username"`
	Email     string `form:"email" validate:"required,email"`
	Password  string `form:"password" validate:"required,password"`
}

func (f *SignupForm) Validate() Errors {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
}

func (f *LoginForm) Validate() Errors {
	f.Username = strings.TrimSpace(f.Username)
	return check(f)
}

// SafeNext returns a local redirect target, or "/" for anything that could
// leave the site.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}

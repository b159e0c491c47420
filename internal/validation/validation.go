// Package validation holds field rules shared by forms, services and the
// admin CLI.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxUsernameLength   = 150
	MaxGroupTitleLength = 200
	MaxGroupSlugLength  = 50
	MinPasswordLength   = 8
	MaxPasswordLength   = 128
)

var (
	usernameRegex  = regexp.MustCompile(`^[\w.@+-]+$`)
	groupSlugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	allDigitsRegex = regexp.MustCompile(`^[0-9]+$`)
)

// Slugs that would shadow a top-level route.
var reservedGroupSlugs = map[string]struct{}{
	"admin":   {},
	"api":     {},
	"auth":    {},
	"create":  {},
	"follow":  {},
	"media":   {},
	"metrics": {},
	"health":  {},
}

// ValidateUsername checks length and the letters, digits and @.+-_ charset.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return fmt.Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username may contain only letters, digits and @/./+/-/_")
	}
	return nil
}

func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	}
	if allDigitsRegex.MatchString(password) {
		return fmt.Errorf("password cannot be entirely numeric")
	}
	return nil
}

// ValidateGroupSlug validates group slug format and reserved names.
func ValidateGroupSlug(slug string) error {
	if slug == "" || len(slug) > MaxGroupSlugLength {
		return fmt.Errorf("slug must be 1-%d characters", MaxGroupSlugLength)
	}
	if !groupSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug may contain only letters, numbers, underscores and hyphens")
	}
	if _, exists := reservedGroupSlugs[strings.ToLower(slug)]; exists {
		return fmt.Errorf("slug is reserved")
	}
	return nil
}

func ValidateGroupTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxGroupTitleLength {
		return fmt.Errorf("title must be at most %d characters", MaxGroupTitleLength)
	}
	return nil
}

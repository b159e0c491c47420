package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "correct horse", false},
		{"Exactly Min Length", "abcdefg1", false},
		{"Exactly Max Length", strings.Repeat("b", 128), false},
		{"Too Short", "abc1", true},
		{"Too Long", strings.Repeat("b", 129), true},
		{"All Digits", "1234567890", true},
		{"Unicode Characters", "Ångströms", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Email Like", "leo@tolstoy.ru", false},
		{"Plus And Dot", "a.b+c-d", false},
		{"Empty", "", true},
		{"Space", "leo tolstoy", true},
		{"Slash", "leo/tolstoy", true},
		{"Max Length", strings.Repeat("a", 150), false},
		{"Too Long", strings.Repeat("a", 151), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateGroupSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		slug string
		ok   bool
	}{
		{name: "lowercase", slug: "cats", ok: true},
		{name: "mixed case with underscore", slug: "Pc_Gaming", ok: true},
		{name: "hyphen", slug: "leo-tolstoy", ok: true},
		{name: "single character", slug: "a", ok: true},
		{name: "maximum length", slug: strings.Repeat("a", 50), ok: true},
		{name: "too long", slug: strings.Repeat("a", 51), ok: false},
		{name: "empty", slug: "", ok: false},
		{name: "space", slug: "pc gaming", ok: false},
		{name: "symbol", slug: "pc!gaming", ok: false},
		{name: "cyrillic", slug: "коты", ok: false},
		{name: "reserved admin", slug: "admin", ok: false},
		{name: "reserved create any case", slug: "Create", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateGroupSlug(tc.slug)
			if tc.ok && err != nil {
				t.Fatalf("expected valid slug, got error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected invalid slug, got nil error")
			}
		})
	}
}

func TestValidateGroupTitle(t *testing.T) {
	assert.NoError(t, ValidateGroupTitle("Лев Толстой"))
	assert.Error(t, ValidateGroupTitle("   "))
	assert.Error(t, ValidateGroupTitle(strings.Repeat("x", 201)))
}

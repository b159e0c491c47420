package service

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_SignupAndAuthenticate(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db)).WithBcryptCost(bcrypt.MinCost)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{
		Username:  "leo",
		Email:     " Leo@Example.com ",
		Password:  "war and peace",
		FirstName: "Leo",
	})
	require.NoError(t, err)
	assert.Equal(t, "leo@example.com", user.Email)
	assert.NotEqual(t, "war and peace", user.Password)

	got, err := svc.Authenticate(ctx, "leo", "war and peace")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got, err = svc.Authenticate(ctx, "leo@example.com", "war and peace")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "leo", "wrong password")
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.Authenticate(ctx, "nobody", "war and peace")
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.Signup(ctx, SignupInput{Username: "leo", Email: "x@example.com", Password: "war and peace"})
	assertCode(t, err, models.CodeConflict)
}

func TestUserService_Signup_Validation(t *testing.T) {
	t.Parallel()
	svc := NewUserService(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SignupInput
	}{
		{"bad username", SignupInput{Username: "leo tolstoy", Email: "leo@example.com", Password: "war and peace"}},
		{"bad email", SignupInput{Username: "leo", Email: "not-an-email", Password: "war and peace"}},
		{"short password", SignupInput{Username: "leo", Email: "leo@example.com", Password: "short"}},
		{"numeric password", SignupInput{Username: "leo", Email: "leo@example.com", Password: "1234567890"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.in)
			assertValidationError(t, err)
		})
	}
}

func TestUserService_SetAdmin(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.CreateUser(t, db, "leo")
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	user, err := svc.SetAdmin(ctx, "leo", true)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	admins, err := svc.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)

	_, err = svc.SetAdmin(ctx, "ghost", true)
	assertCode(t, err, models.CodeNotFound)
}

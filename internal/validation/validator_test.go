package validation

import (
	"testing"

	"inkpress/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupProbe struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
	Dir      *int   `json:"dir" validate:"required,oneof=0 1"`
}

func TestStruct_CollectsFieldErrors(t *testing.T) {
	dir := 3
	err := Struct(signupProbe{Username: "a!", Email: "nope", Password: "short", Dir: &dir})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindValidation))

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	fields := map[string]string{}
	for _, f := range appErr.Fields {
		fields[f.Field] = f.Tag
	}
	assert.Equal(t, map[string]string{
		"username": "username",
		"email":    "email",
		"password": "password",
		"dir":      "oneof",
	}, fields)
}

func TestStruct_Valid(t *testing.T) {
	zero := 0
	assert.NoError(t, Struct(signupProbe{Username: "writer_1", Email: "w@example.com", Password: "secret123", Dir: &zero}))
}

func TestStruct_RequiredPointer(t *testing.T) {
	err := Struct(signupProbe{Username: "writer_1", Email: "w@example.com", Password: "secret123"})
	require.Error(t, err)
	appErr := err.(*models.AppError)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "dir", appErr.Fields[0].Field)
	assert.Equal(t, "required", appErr.Fields[0].Tag)
}

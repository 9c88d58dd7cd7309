package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Status(t *testing.T) {
	cases := map[*AppError]int{
		NewNotFoundError("Article", 1):      404,
		NewForbiddenError("no"):             403,
		NewUnauthorizedError("no"):          401,
		NewBadRequestError("bad"):           400,
		NewConflictError("dup"):             409,
		NewValidationError("invalid"):       422,
		NewInternalError(errors.New("boom")): 500,
	}
	for appErr, want := range cases {
		assert.Equal(t, want, appErr.Status(), appErr.Code)
	}
}

func TestStatusOf_WrappedAppError(t *testing.T) {
	err := fmt.Errorf("loading: %w", NewNotFoundError("User", 7))
	assert.Equal(t, 404, StatusOf(err))
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, 500, StatusOf(errors.New("plain")))
}

func TestRespondWithError_HidesInternalCause(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return Respond(c, NewInternalError(errors.New("pq: password authentication failed")))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 500, resp.StatusCode)
	assert.NotContains(t, string(body), "password authentication")

	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "Internal server error", out.Detail)
}

func TestRespondWithError_ValidationFields(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return Respond(c, NewValidationError("Invalid request body",
			FieldError{Field: "title", Tag: "required", Message: "title is required"}))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var out ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 422, resp.StatusCode)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "title", out.Errors[0].Field)
}

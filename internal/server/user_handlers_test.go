package server

import (
	"fmt"
	"net/http"
	"testing"

	"inkpress/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAdministration(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("root", models.RoleAdmin)
	target := env.createUser("promoted", models.RoleUser)
	adminToken := env.token(admin)
	targetToken := env.token(target)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/v1/users", nil, targetToken).StatusCode)

	resp := env.do(http.MethodGet, "/api/v1/users", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.User](t, resp), 2)

	resp = env.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", target.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "promoted", decode[models.User](t, resp).Username)

	// A plain user cannot write until promoted.
	article := fiber.Map{"title": "Promoted post", "content": "C"}
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/v1/articles", article, targetToken).StatusCode)

	rolePath := fmt.Sprintf("/api/v1/users/%d/role", target.ID)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, rolePath, fiber.Map{"role": "overlord"}, adminToken).StatusCode)

	resp = env.do(http.MethodPut, rolePath, fiber.Map{"role": "author"}, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.RoleAuthor, decode[models.User](t, resp).Role)

	assert.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/v1/articles", article, targetToken).StatusCode)

	resp = env.do(http.MethodGet, "/api/v1/users/role?role=author", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	authors := decode[[]models.User](t, resp)
	require.Len(t, authors, 1)
	assert.Equal(t, target.ID, authors[0].ID)

	selfDemote := env.do(http.MethodPut, fmt.Sprintf("/api/v1/users/%d/role", admin.ID), fiber.Map{"role": "user"}, adminToken)
	assert.Equal(t, http.StatusForbidden, selfDemote.StatusCode)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/v1/users/999", nil, adminToken).StatusCode)
}

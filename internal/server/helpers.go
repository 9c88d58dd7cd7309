package server

import (
	"errors"
	"strconv"
	"strings"

	"inkpress/internal/models"
	"inkpress/internal/repository"
	"inkpress/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const (
	defaultPageLimit = 10
	maxListLimit     = 30
	maxSearchLimit   = 100
)

// parsePagination reads skip/limit query parameters. Limits outside (0, max] fall back to the bounds.
func parsePagination(c *fiber.Ctx, maxLimit int) repository.Page {
	return clampPage(c.QueryInt("skip", 0), c.QueryInt("limit", defaultPageLimit), maxLimit)
}

func clampPage(skip, limit, maxLimit int) repository.Page {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return repository.Page{Skip: skip, Limit: limit}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.Respond(c, models.NewBadRequestError("Invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseQueryID reads a required positive integer query parameter, answering 400 when it is absent or malformed.
func parseQueryID(c *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		_ = models.Respond(c, models.NewBadRequestError("Query parameter "+name+" must be a positive integer"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// optionalQueryID reads an optional positive integer query parameter.
func optionalQueryID(c *fiber.Ctx, name string) (*uint, error) {
	if strings.TrimSpace(c.Query(name)) == "" {
		return nil, nil
	}
	id, err := parseQueryID(c, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// bindJSON parses the body into req and runs struct validation.
// On failure it writes a 400 or 422 response and returns errResponseWritten.
func bindJSON(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		_ = models.Respond(c, models.NewBadRequestError("Invalid request body"))
		return errResponseWritten
	}
	if err := validation.Struct(req); err != nil {
		_ = models.Respond(c, err)
		return errResponseWritten
	}
	return nil
}

// parseIDList turns "1,2,3" into ids. Items that are not positive integers are ignored.
func parseIDList(raw string) []uint {
	ids := make([]uint, 0)
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// currentUser returns the user resolved by AuthRequired.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

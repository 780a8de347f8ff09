package readme

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticClaims struct {
	username string
}

func (s staticClaims) Username() string { return s.username }

func newCurrentUserApp(repo RepositoryManager, username string) *fiber.App {
	app := fiber.New()
	app.Get("/me", func(c *fiber.Ctx) error {
		c.Locals("user", staticClaims{username: username})
		user, err := CurrentUser(c, "user", repo)
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(user)
	})
	return app
}

func TestCurrentUserResolvesAccount(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	seedTestUser(t, repo, "reader@example.com")

	app := newCurrentUserApp(repo, "reader@example.com")
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	var user User
	decodeBody(t, res, &user)
	assert.Equal(t, "reader@example.com", user.Username)
}

func TestCurrentUserUnknownUsernameIsTokenError(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	app := newCurrentUserApp(repo, "ghost@example.com")
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	var body ErrorResponse
	decodeBody(t, res, &body)
	assert.Equal(t, TextCodeTokenMalformed, body.TextCode)
}

func TestCurrentUserStorageFailureIsInternal(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	seedTestUser(t, repo, "reader@example.com")
	require.NoError(t, db.Close())

	app := newCurrentUserApp(repo, "reader@example.com")
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)

	var body ErrorResponse
	decodeBody(t, res, &body)
	assert.Equal(t, "internal server error", body.Error)
	assert.Empty(t, body.TextCode)
}

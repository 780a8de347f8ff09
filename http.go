package readme

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// ErrorResponse is the client-facing failure payload.
type ErrorResponse struct {
	Error    string `json:"error"`
	TextCode string `json:"text_code,omitempty"`
}

// HTTPStatusFromError maps the error taxonomy onto HTTP statuses. Expected
// business failures surface as client errors with their message; anything
// else is a generic server failure.
func HTTPStatusFromError(err error) int {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fiber.StatusInternalServerError
	}

	switch richErr.Category {
	case goerrors.CategoryAuth, goerrors.CategoryValidation, goerrors.CategoryBadInput, goerrors.CategoryNotFound:
		return fiber.StatusBadRequest
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// WriteError renders an error as JSON. Internal failures never leak their
// message to the client.
func WriteError(c *fiber.Ctx, err error) error {
	status := HTTPStatusFromError(err)

	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(ErrorResponse{Error: "internal server error"})
	}

	res := ErrorResponse{Error: err.Error()}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		res.Error = richErr.Message
		res.TextCode = richErr.TextCode
	}

	return c.Status(status).JSON(res)
}

// CurrentUser resolves the authenticated account from the validated claims
// the JWT middleware stored under contextKey.
func CurrentUser(c *fiber.Ctx, contextKey string, repo RepositoryManager) (*User, error) {
	claims, ok := c.Locals(contextKey).(interface{ Username() string })
	if !ok || claims.Username() == "" {
		return nil, ErrTokenMalformed
	}

	user, err := repo.Users().GetByUsername(c.Context(), claims.Username())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrTokenMalformed.Clone().WithMetadata(map[string]any{
				"username": claims.Username(),
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account")
	}

	return user, nil
}

package firebase

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultJWKSetURL serves the public keys Google signs identity tokens with.
const DefaultJWKSetURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// Config holds Firebase project settings for identity token verification.
type Config struct {
	// ProjectID is the Firebase project the tokens must belong to. It is
	// both the expected audience and the tail of the expected issuer.
	ProjectID string

	// JWKSetURL overrides the Google key endpoint (optional).
	JWKSetURL string

	// RefreshInterval is how often the key set is refreshed.
	// Default: 1 hour.
	RefreshInterval time.Duration

	// KeyFunc overrides key resolution entirely (optional). When set, no
	// key set is fetched.
	KeyFunc jwt.Keyfunc
}

// DefaultConfig returns a Config with sensible defaults for the project.
func DefaultConfig(projectID string) Config {
	return Config{
		ProjectID:       projectID,
		JWKSetURL:       DefaultJWKSetURL,
		RefreshInterval: time.Hour,
	}
}

func (c Config) issuer() string {
	return fmt.Sprintf("https://securetoken.google.com/%s", strings.TrimSpace(c.ProjectID))
}

func (c Config) jwkSetURL() string {
	if c.JWKSetURL != "" {
		return c.JWKSetURL
	}
	return DefaultJWKSetURL
}

func (c Config) refreshInterval() time.Duration {
	if c.RefreshInterval > 0 {
		return c.RefreshInterval
	}
	return time.Hour
}

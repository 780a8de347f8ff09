package config

import (
	"fmt"
	"time"

	readme "github.com/readmecorp/readme-server"
)

// AppConfig is the root configuration container for the server.
type AppConfig struct {
	Server      Server      `json:"server" yaml:"server"`
	Auth        Auth        `json:"auth" yaml:"auth"`
	Persistence Persistence `json:"persistence" yaml:"persistence"`
	Firebase    Firebase    `json:"firebase" yaml:"firebase"`
	Bootpay     Bootpay     `json:"bootpay" yaml:"bootpay"`
}

type Server struct {
	Address         string `json:"address" yaml:"address"`
	ShutdownTimeout string `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type Auth struct {
	SigningKey      string   `json:"signing_key" yaml:"signing_key"`
	SigningMethod   string   `json:"signing_method" yaml:"signing_method"`
	ContextKey      string   `json:"context_key" yaml:"context_key"`
	TokenExpiration int      `json:"token_expiration" yaml:"token_expiration"`
	TokenLookup     string   `json:"token_lookup" yaml:"token_lookup"`
	AuthScheme      string   `json:"auth_scheme" yaml:"auth_scheme"`
	Issuer          string   `json:"issuer" yaml:"issuer"`
	Audience        []string `json:"audience" yaml:"audience"`
}

var _ readme.Config = Auth{}

type Persistence struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

type Firebase struct {
	ProjectID string `json:"project_id" yaml:"project_id"`
}

type Bootpay struct {
	BaseURL       string `json:"base_url" yaml:"base_url"`
	ApplicationID string `json:"application_id" yaml:"application_id"`
	PrivateKey    string `json:"private_key" yaml:"private_key"`
}

func (a *AppConfig) Validate() error {
	if a.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required")
	}
	if a.Firebase.ProjectID == "" {
		return fmt.Errorf("firebase.project_id is required")
	}
	return nil
}

func (s Server) GetAddress() string {
	if s.Address == "" {
		return ":8080"
	}
	return s.Address
}

func (s Server) GetShutdownTimeout() time.Duration {
	dur, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil || dur <= 0 {
		return 10 * time.Second
	}
	return dur
}

func (p Persistence) GetDSN() string {
	if p.DSN == "" {
		return "file::memory:?cache=shared"
	}
	return p.DSN
}

func (a Auth) GetSigningKey() string { return a.SigningKey }

func (a Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "user"
	}
	return a.ContextKey
}

func (a Auth) GetTokenExpiration() int {
	if a.TokenExpiration <= 0 {
		return 24
	}
	return a.TokenExpiration
}

func (a Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization"
	}
	return a.TokenLookup
}

func (a Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a Auth) GetIssuer() string {
	if a.Issuer == "" {
		return "readme-server"
	}
	return a.Issuer
}

func (a Auth) GetAudience() []string {
	if len(a.Audience) == 0 {
		return []string{"readme-clients"}
	}
	return a.Audience
}

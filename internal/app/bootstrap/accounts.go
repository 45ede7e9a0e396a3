package bootstrap

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/wolfman30/clinic-calendar/internal/accounts"
	appconfig "github.com/wolfman30/clinic-calendar/internal/config"
	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

// demoSeedUsers is used in development when SEED_USERS is empty.
const demoSeedUsers = `[
	{"id": "patient-1", "name": "Sarah Johnson", "email": "patient@clinic.local", "role": "patient", "password": "demo"},
	{"id": "practitioner-1", "name": "Dr. Priya Sharma", "email": "practitioner@clinic.local", "role": "practitioner", "password": "demo"}
]`

func isDevelopment(cfg *appconfig.Config) bool {
	env := strings.ToLower(strings.TrimSpace(cfg.Env))
	return env == "" || env == "development" || env == "dev" || env == "local"
}

// BuildDirectory loads users from SEED_USERS, or demo users in development.
func BuildDirectory(cfg *appconfig.Config, logger *logging.Logger) (*accounts.Directory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	raw := cfg.SeedUsersJSON
	if strings.TrimSpace(raw) == "" {
		if !isDevelopment(cfg) {
			return nil, fmt.Errorf("bootstrap: SEED_USERS is required outside development")
		}
		logger.Warn("SEED_USERS empty; loading demo accounts")
		raw = demoSeedUsers
	}

	users, err := accounts.ParseSeedUsers(raw)
	if err != nil {
		return nil, err
	}
	dir, err := accounts.NewDirectory(users...)
	if err != nil {
		return nil, err
	}
	logger.Info("user directory loaded", "users", dir.Len())
	return dir, nil
}

// BuildTokenIssuer creates the session token issuer. In development a
// random per-process secret is used when SESSION_JWT_SECRET is unset.
func BuildTokenIssuer(cfg *appconfig.Config, logger *logging.Logger) (*accounts.TokenIssuer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	secret := cfg.SessionJWTSecret
	if secret == "" {
		if !isDevelopment(cfg) {
			return nil, fmt.Errorf("bootstrap: SESSION_JWT_SECRET is required outside development")
		}
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("bootstrap: generate session secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		logger.Warn("SESSION_JWT_SECRET empty; sessions will not survive a restart")
	}
	return accounts.NewTokenIssuer(secret, cfg.SessionTTL)
}

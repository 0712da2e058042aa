// Package authsync mirrors a host-mounted OAuth credential file into
// the gateway's multi-profile auth store.
//
// The source file is owned by an external CLI on the host and arrives
// over a bind mount, so change notifications are best-effort; the
// daemon polls on a fixed interval and uses filesystem events only to
// react faster when they do arrive.
package authsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pythonstrup/openclaw-docker/internal/store"
)

// DefaultProfileID is the fixed auth-store slot the external
// credential is published under.
const DefaultProfileID = "anthropic:oauth"

// DefaultProvider is the provider name recorded on synced profiles.
const DefaultProvider = "anthropic"

// tokenLifetime is how long a synced access token is considered
// valid, counted from the source's last refresh.
const tokenLifetime = time.Hour

var (
	// ErrSourceUnreadable reports a missing or unreadable source file.
	// Expected during startup while the host mount is still being
	// populated.
	ErrSourceUnreadable = errors.New("credential source unreadable")

	// ErrSourceInvalid reports a source file that parsed but is
	// missing required token fields.
	ErrSourceInvalid = errors.New("credential source invalid")
)

// AuthProfile is one provider credential slot in the auth store.
type AuthProfile struct {
	Type     string `json:"type"`
	Provider string `json:"provider"`
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Expires  int64  `json:"expires"` // unix millis
	Account  string `json:"account,omitempty"`
}

// AuthStore is the versioned profile container persisted at
// auth-profiles.json. The version of an existing store is preserved,
// never reset, across syncs.
type AuthStore struct {
	Version  int                    `json:"version"`
	Profiles map[string]AuthProfile `json:"profiles"`
}

// sourceFile mirrors the external credential document.
type sourceFile struct {
	Tokens      *sourceTokens `json:"tokens"`
	LastRefresh string        `json:"last_refresh"`
}

type sourceTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccountID    string `json:"account_id"`
}

// Config holds resolved runtime config for the credential-sync
// daemon. Zero intervals and blank ids fall back to defaults.
type Config struct {
	SourcePath   string
	StorePath    string
	ProfileID    string
	Provider     string
	PollInterval time.Duration
	Debounce     time.Duration
}

func (c *Config) applyDefaults() {
	if c.ProfileID == "" {
		c.ProfileID = DefaultProfileID
	}
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.Debounce <= 0 {
		c.Debounce = 300 * time.Millisecond
	}
}

// SyncOnce runs one sync cycle: read the source, derive a profile,
// and republish it only when it differs from what is stored. Returns
// whether the store was written.
func SyncOnce(cfg Config, now time.Time) (bool, error) {
	cfg.applyDefaults()

	data, err := os.ReadFile(cfg.SourcePath)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	var src sourceFile
	if err := json.Unmarshal(data, &src); err != nil {
		return false, fmt.Errorf("%w: %v", ErrSourceInvalid, err)
	}
	if src.Tokens == nil ||
		strings.TrimSpace(src.Tokens.AccessToken) == "" ||
		strings.TrimSpace(src.Tokens.RefreshToken) == "" {
		return false, fmt.Errorf("%w: missing access or refresh token", ErrSourceInvalid)
	}

	expiry := now.Add(tokenLifetime)
	if t, err := time.Parse(time.RFC3339, src.LastRefresh); err == nil {
		expiry = t.Add(tokenLifetime)
	}

	profile := AuthProfile{
		Type:     "oauth",
		Provider: cfg.Provider,
		Access:   src.Tokens.AccessToken,
		Refresh:  src.Tokens.RefreshToken,
		Expires:  expiry.UnixMilli(),
		Account:  src.Tokens.AccountID,
	}

	st := store.Load(cfg.StorePath, AuthStore{Version: 1})
	if st.Version == 0 {
		st.Version = 1
	}
	if st.Profiles == nil {
		st.Profiles = make(map[string]AuthProfile)
	}

	// Field-for-field identical means nothing to do: skipping the
	// write keeps an unchanged source from churning the store.
	if existing, ok := st.Profiles[cfg.ProfileID]; ok && existing == profile {
		return false, nil
	}

	st.Profiles[cfg.ProfileID] = profile
	if err := store.Save(cfg.StorePath, st); err != nil {
		return false, err
	}
	return true, nil
}

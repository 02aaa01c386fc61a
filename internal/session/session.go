// Package session keeps each visitor's filter criteria and selections.
//
// State is scoped per session and per panel. Nothing is shared between sessions. By default
// the signed cookie is the only storage; the filesystem store keeps state in files and the
// cookie only carries the session id.
package session

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/stacklok/ballpark/internal/config"
	"github.com/stacklok/ballpark/internal/filtering"
)

const (
	// CookieName is the name of the session cookie
	CookieName = "ballpark_session"

	// CookieStateLimit bounds the raw state bytes kept in a cookie-backed session.
	// Signing and double base64 encoding must still fit the 4096 byte cookie codec limit.
	CookieStateLimit = 1800

	idKey       = "id"
	panelPrefix = "panel:"
	secretBytes = 32
	dirMode     = 0o700
)

// ErrStateTooLarge is returned when a session outgrows its store
var ErrStateTooLarge = errors.New("session state too large")

// PanelState is the per-panel state of one session
type PanelState struct {
	Team      string   `json:"team,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Names     []string `json:"names,omitempty"`
	Metrics   []string `json:"metrics,omitempty"`
	Search    string   `json:"search,omitempty"`
}

// Criteria returns the filter criteria held in the state
func (p PanelState) Criteria() filtering.Criteria {
	return filtering.Criteria{Team: p.Team, Threshold: p.Threshold}
}

// Selection returns the entity and metric selection held in the state
func (p PanelState) Selection() filtering.Selection {
	return filtering.Selection{Names: p.Names, Metrics: p.Metrics, Search: p.Search}
}

// Store reads and writes PanelState through a gorilla/sessions store
type Store struct {
	store sessions.Store
	limit int
}

// NewStore wraps a sessions.Store. Cookie stores get CookieStateLimit; other stores are unbounded.
func NewStore(store sessions.Store) *Store {
	s := &Store{store: store}
	if _, ok := store.(*sessions.CookieStore); ok {
		s.limit = CookieStateLimit
	}
	return s
}

// NewBackend creates the store selected by cfg.Store
func NewBackend(cfg *config.SessionConfig) (sessions.Store, error) {
	switch cfg.GetStore() {
	case config.SessionStoreCookie:
		return NewCookieStore(cfg)
	case config.SessionStoreFilesystem:
		return NewFilesystemStore(cfg)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.GetStore())
	}
}

// NewCookieStore creates a cookie store from the session configuration.
// Without a configured secret a random one is generated, so sessions do not survive a restart.
func NewCookieStore(cfg *config.SessionConfig) (*sessions.CookieStore, error) {
	key, err := signingKey(cfg)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(key)
	store.MaxAge(int(cfg.GetMaxAge().Seconds()))
	applyCookieOptions(store.Options, cfg)
	return store, nil
}

// NewFilesystemStore creates a store that keeps state in cfg.Directory.
// State size is not limited there, only the request body is.
func NewFilesystemStore(cfg *config.SessionConfig) (*sessions.FilesystemStore, error) {
	key, err := signingKey(cfg)
	if err != nil {
		return nil, err
	}

	dir := ""
	if cfg != nil {
		dir = cfg.Directory
	}
	if dir != "" {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return nil, fmt.Errorf("failed to create session directory %s: %w", dir, err)
		}
	}

	store := sessions.NewFilesystemStore(dir, key)
	store.MaxLength(0)
	store.MaxAge(int(cfg.GetMaxAge().Seconds()))
	applyCookieOptions(store.Options, cfg)
	return store, nil
}

func signingKey(cfg *config.SessionConfig) ([]byte, error) {
	secret, err := cfg.GetSecret()
	if err != nil {
		return nil, err
	}

	key := []byte(secret)
	if len(key) == 0 {
		slog.Warn("No session secret configured, generating a per-process secret",
			"env", config.SessionSecretEnvVar)
		key = make([]byte, secretBytes)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}
	return key, nil
}

func applyCookieOptions(opts *sessions.Options, cfg *config.SessionConfig) {
	opts.Path = "/"
	opts.HttpOnly = true
	opts.SameSite = http.SameSiteLaxMode
	opts.Secure = cfg != nil && cfg.Secure
}

// get returns the request's session. An undecodable cookie yields a fresh session.
func (s *Store) get(r *http.Request) *sessions.Session {
	sess, err := s.store.Get(r, CookieName)
	if err != nil {
		slog.Debug("Discarding invalid session cookie", "error", err)
	}
	if sess == nil {
		sess = sessions.NewSession(s.store, CookieName)
		sess.Options = &sessions.Options{Path: "/", HttpOnly: true}
	}
	return sess
}

// ID returns the session id, or "" when the request carries no session yet
func (s *Store) ID(r *http.Request) string {
	id, _ := s.get(r).Values[idKey].(string)
	return id
}

// Load returns the stored state for a panel, or the zero state when none is stored
func (s *Store) Load(r *http.Request, panelID string) (PanelState, error) {
	var state PanelState

	raw, ok := s.get(r).Values[panelPrefix+panelID].(string)
	if !ok || raw == "" {
		return state, nil
	}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return PanelState{}, fmt.Errorf("failed to decode state for panel %s: %w", panelID, err)
	}
	return state, nil
}

// Save stores the state for a panel and writes the cookie. A session id is assigned on first save.
// It returns ErrStateTooLarge when the session would exceed the store's limit.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, panelID string, state PanelState) (string, error) {
	sess := s.get(r)

	id, _ := sess.Values[idKey].(string)
	if id == "" {
		id = uuid.NewString()
		sess.Values[idKey] = id
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to encode state for panel %s: %w", panelID, err)
	}
	key := panelPrefix + panelID
	previous, hadPrevious := sess.Values[key]
	sess.Values[key] = string(raw)

	if size := stateSize(sess.Values); s.limit > 0 && size > s.limit {
		if hadPrevious {
			sess.Values[key] = previous
		} else {
			delete(sess.Values, key)
		}
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrStateTooLarge, size, s.limit)
	}

	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	slog.Debug("Saved panel state", "session_id", id, "panel", panelID)
	return id, nil
}

// stateSize counts the key and value bytes of the string entries in a session
func stateSize(values map[any]any) int {
	n := 0
	for k, v := range values {
		ks, _ := k.(string)
		vs, _ := v.(string)
		n += len(ks) + len(vs)
	}
	return n
}

// Package session keeps per-browser authentication state on the server.
// It replaces the access_token and user entries the web client used to
// keep in local storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/learnhub-academy/learnhub/internal/rbac"
)

const (
	keyAccessToken = "access_token"
	keyUser        = "user"
)

// ErrNotFound indicates an unknown or expired session id.
var ErrNotFound = errors.New("session: not found")

// Hooks observe the session lifecycle. Any field may be nil.
type Hooks struct {
	OnLoad    func(ctx context.Context, sess *Session)
	OnSave    func(ctx context.Context, sess *Session)
	OnDestroy func(ctx context.Context, sess *Session)
}

// Options configures a Manager.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	Hooks      Hooks
}

// Manager orchestrates cookie based sessions backed by Redis.
type Manager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	hooks      Hooks
}

// Session holds per-request session data.
type Session struct {
	ID        string
	values    map[string]string
	isNew     bool
	// retired is a previous id deleted on the next Commit.
	retired   string
	dirty     bool
	destroyed bool
}

type payload struct {
	Values map[string]string `json:"values"`
}

// NewManager constructs a Manager.
func NewManager(client *redis.Client, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "learnhub_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Manager{
		client:     client,
		cookieName: opts.CookieName,
		ttl:        opts.TTL,
		secure:     opts.Secure,
		hooks:      opts.Hooks,
	}
}

// Load loads the request's session or starts a new one.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return m.loaded(ctx, newSession()), nil
		}
		return nil, err
	}
	sess, err := m.Lookup(ctx, cookie.Value)
	if errors.Is(err, ErrNotFound) {
		// Expired server side; start over under a fresh id.
		return m.loaded(ctx, newSession()), nil
	}
	if err != nil {
		return nil, err
	}
	return m.loaded(ctx, sess), nil
}

// Lookup loads a stored session by id without an HTTP request.
func (m *Manager) Lookup(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	raw, err := m.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var stored payload
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	sess := &Session{ID: id, values: stored.Values}
	if sess.values == nil {
		sess.values = make(map[string]string)
	}
	return sess, nil
}

// Commit persists the session and writes cookie headers as needed.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := m.client.Del(ctx, redisKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
		if m.hooks.OnDestroy != nil {
			m.hooks.OnDestroy(ctx, sess)
		}
		return nil
	}

	if !sess.dirty {
		return nil
	}
	if sess.retired != "" {
		if err := m.client.Del(ctx, redisKey(sess.retired)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		sess.retired = ""
	}
	data, err := json.Marshal(payload{Values: sess.values})
	if err != nil {
		return err
	}
	if err := m.client.Set(ctx, redisKey(sess.ID), data, m.ttl).Err(); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	sess.dirty = false
	sess.isNew = false
	if m.hooks.OnSave != nil {
		m.hooks.OnSave(ctx, sess)
	}
	return nil
}

// Destroy marks the session for deletion on the next Commit.
func (m *Manager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
}

// Renew moves the session to a fresh id, keeping its values. The old id
// is deleted on Commit. Call it whenever the privilege level changes.
func (m *Manager) Renew(sess *Session) {
	if sess == nil {
		return
	}
	if !sess.isNew && sess.retired == "" {
		sess.retired = sess.ID
	}
	sess.ID = uuid.NewString()
	sess.dirty = true
}

func (m *Manager) loaded(ctx context.Context, sess *Session) *Session {
	if m.hooks.OnLoad != nil {
		m.hooks.OnLoad(ctx, sess)
	}
	return sess
}

// Set stores a key-value pair.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a value.
func (s *Session) Get(key string) string {
	if s == nil || s.values == nil {
		return ""
	}
	return s.values[key]
}

// Delete removes a value.
func (s *Session) Delete(key string) {
	if s.values == nil {
		return
	}
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// SetAuth records the backend access token and the signed-in user.
func (s *Session) SetAuth(token string, user rbac.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	s.Set(keyAccessToken, token)
	s.Set(keyUser, string(data))
	return nil
}

// ClearAuth drops the token and user while keeping the session alive.
func (s *Session) ClearAuth() {
	s.Delete(keyAccessToken)
	s.Delete(keyUser)
}

// AccessToken returns the backend bearer token, if any.
func (s *Session) AccessToken() string {
	return s.Get(keyAccessToken)
}

// CurrentUser decodes the cached user. It returns nil when the session is
// anonymous or the cached value is unreadable.
func (s *Session) CurrentUser() *rbac.User {
	raw := s.Get(keyUser)
	if raw == "" || s.AccessToken() == "" {
		return nil
	}
	var user rbac.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil
	}
	return &user
}

func newSession() *Session {
	return &Session{
		ID:     uuid.NewString(),
		values: make(map[string]string),
		isNew:  true,
	}
}

func redisKey(id string) string {
	return "session:" + id
}

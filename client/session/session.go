// Package session keeps a shopper signed in across restarts and tabs.
//
// The persisted session lives in storage under token, user and
// luxe_auth_data. It is valid for thirty days from the last sign-in, and
// that horizon is checked on every read, not only at start-up.
package session

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/kalp9197/luxe-ecommerce-site/client/api"
	"github.com/kalp9197/luxe-ecommerce-site/client/storage"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/clock"
)

const (
	Lifetime      = 30 * 24 * time.Hour
	TouchInterval = 5 * time.Minute
)

type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// API is the subset of the storefront client a session drives.
type API interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (*models.AuthResponse, error)
	UpdateProfile(ctx context.Context, req *models.UpdateProfileRequest) (*models.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
}

// authData is the luxe_auth_data record. Times are Unix milliseconds.
type authData struct {
	User      models.AuthResponse `json:"user"`
	Timestamp int64               `json:"timestamp"`
	ExpiresAt int64               `json:"expiresAt,omitempty"`
}

type Session struct {
	store storage.Storage
	api   API
	clock clock.Clock

	mu      sync.Mutex
	state   State
	user    *models.AuthResponse
	lastErr string
}

func New(store storage.Storage, client API, clk clock.Clock) *Session {
	return &Session{
		store: store,
		api:   client,
		clock: clock.OrReal(clk),
	}
}

// TokenSource reads the bearer token straight from store, for api.WithTokenSource.
func TokenSource(store storage.Storage) func() string {
	return func() string {
		token, _ := store.Get(storage.KeyToken)
		return token
	}
}

// Restore adopts whatever token and user are persisted, without checking
// expiry, so a caller can render a signed-in state immediately. Validate
// should follow.
func (s *Session) Restore() {
	token, hasToken := s.store.Get(storage.KeyToken)
	var user models.AuthResponse
	ok, err := storage.GetJSON(s.store, storage.KeyUser, &user)
	if !hasToken || token == "" || !ok || err != nil {
		return
	}

	s.mu.Lock()
	s.user = &user
	s.state = Authenticated
	s.mu.Unlock()
}

// Validate enforces the thirty-day horizon. An expired or unreadable
// session is cleared and false is returned. Only a valid session counts as
// activity.
func (s *Session) Validate() bool {
	if s.expired() {
		log.Println("[session] persisted session expired or unreadable, signing out")
		s.Logout()
		return false
	}

	var user models.AuthResponse
	ok, err := storage.GetJSON(s.store, storage.KeyUser, &user)
	if err != nil {
		log.Printf("[session] corrupt user record: %v", err)
		s.Logout()
		return false
	}
	if !ok {
		s.setSignedOut()
		return false
	}

	s.mu.Lock()
	s.user = &user
	s.state = Authenticated
	s.mu.Unlock()
	s.touch()
	return true
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IsAuthenticated() bool {
	if s.expired() {
		s.Logout()
		return false
	}
	token, ok := s.store.Get(storage.KeyToken)
	return ok && token != ""
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *models.AuthResponse {
	if !s.IsAuthenticated() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// LastError is the message of the most recent failed operation, cleared by
// the next success.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) Login(ctx context.Context, email, password string) bool {
	return s.authenticate(func() (*models.AuthResponse, error) {
		return s.api.Login(ctx, email, password)
	})
}

func (s *Session) Register(ctx context.Context, name, email, password string) bool {
	return s.authenticate(func() (*models.AuthResponse, error) {
		return s.api.Register(ctx, name, email, password)
	})
}

func (s *Session) authenticate(call func() (*models.AuthResponse, error)) bool {
	s.mu.Lock()
	prev := s.state
	s.state = Authenticating
	s.mu.Unlock()

	resp, err := call()
	if err != nil {
		log.Printf("[session] sign-in failed: %v", err)
		s.mu.Lock()
		s.state = prev
		s.lastErr = message(err)
		s.mu.Unlock()
		return false
	}

	if err := s.persist(resp); err != nil {
		log.Printf("[session] failed to persist session: %v", err)
		s.mu.Lock()
		s.state = prev
		s.lastErr = message(err)
		s.mu.Unlock()
		return false
	}
	return true
}

// UpdateProfile sends the changed fields. The server issues a new token,
// which replaces the stored one.
func (s *Session) UpdateProfile(ctx context.Context, req *models.UpdateProfileRequest) bool {
	if !s.IsAuthenticated() {
		s.fail("not signed in")
		return false
	}

	resp, err := s.api.UpdateProfile(ctx, req)
	if err != nil {
		log.Printf("[session] profile update failed: %v", err)
		s.HandleError(err)
		s.fail(message(err))
		return false
	}

	if resp.Token == "" {
		resp.Token, _ = s.store.Get(storage.KeyToken)
	}
	if err := s.persist(resp); err != nil {
		log.Printf("[session] failed to persist profile: %v", err)
		s.fail(message(err))
		return false
	}
	return true
}

func (s *Session) ForgotPassword(ctx context.Context, email string) bool {
	if _, err := s.api.ForgotPassword(ctx, email); err != nil {
		log.Printf("[session] forgot password failed: %v", err)
		s.fail(message(err))
		return false
	}
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
	return true
}

// HandleError signs out when err says the server no longer accepts the
// token. It reports whether that happened.
func (s *Session) HandleError(err error) bool {
	if !errors.Is(err, api.ErrUnauthorized) {
		return false
	}
	log.Println("[session] server rejected token, signing out")
	s.Logout()
	return true
}

// Logout never fails; storage errors are only logged.
func (s *Session) Logout() {
	for _, key := range []string{storage.KeyToken, storage.KeyUser, storage.KeyAuthData, storage.KeyLastActive} {
		if err := s.store.Remove(key); err != nil {
			log.Printf("[session] failed to clear %s: %v", key, err)
		}
	}
	s.setSignedOut()
}

// Run refreshes luxe_last_active while signed in and follows token removal
// made by another tab. It returns when ctx is done.
func (s *Session) Run(ctx context.Context) {
	s.run(ctx, TouchInterval)
}

func (s *Session) run(ctx context.Context, every time.Duration) {
	changes, cancel := s.store.Subscribe()
	defer cancel()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.IsAuthenticated() {
				s.touch()
			}
		case c, ok := <-changes:
			if !ok {
				return
			}
			if c.Key == storage.KeyToken && (c.Removed || c.Value == "") {
				log.Println("[session] token removed elsewhere, signing out")
				s.setSignedOut()
			}
		}
	}
}

func (s *Session) persist(resp *models.AuthResponse) error {
	now := s.clock.Now()
	data := authData{
		User:      *resp,
		Timestamp: now.UnixMilli(),
		ExpiresAt: now.Add(Lifetime).UnixMilli(),
	}
	if err := storage.SetJSON(s.store, storage.KeyAuthData, data); err != nil {
		return err
	}
	if err := s.store.Set(storage.KeyToken, resp.Token); err != nil {
		return err
	}
	if err := storage.SetJSON(s.store, storage.KeyUser, resp); err != nil {
		return err
	}
	s.touch()

	user := *resp
	s.mu.Lock()
	s.user = &user
	s.state = Authenticated
	s.lastErr = ""
	s.mu.Unlock()
	return nil
}

// expired treats a missing or unreadable record as expired. Records written
// before expiresAt existed fall back to timestamp plus Lifetime.
func (s *Session) expired() bool {
	var data authData
	ok, err := storage.GetJSON(s.store, storage.KeyAuthData, &data)
	if !ok || err != nil {
		return true
	}
	now := s.clock.Now().UnixMilli()
	if data.ExpiresAt != 0 {
		return now > data.ExpiresAt
	}
	return now-data.Timestamp > Lifetime.Milliseconds()
}

func (s *Session) touch() {
	now := strconv.FormatInt(s.clock.Now().UnixMilli(), 10)
	if err := s.store.Set(storage.KeyLastActive, now); err != nil {
		log.Printf("[session] failed to record activity: %v", err)
	}
}

func (s *Session) setSignedOut() {
	s.mu.Lock()
	s.user = nil
	s.state = Unauthenticated
	s.mu.Unlock()
}

func (s *Session) fail(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

func message(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

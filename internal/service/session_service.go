package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tally-dashboard/internal/auth"
	"github.com/tally-dashboard/internal/models"
	"github.com/tally-dashboard/internal/repository"
	"github.com/tally-dashboard/internal/state"
)

// sessionService is the concrete implementation of SessionService
type sessionService struct {
	sessions    *state.Manager
	credentials *auth.Table
	seeds       repository.CredentialRepository
	idle        time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

// newSessionService creates a new SessionService. idle 0 turns expiry off.
func newSessionService(repos *repository.Repositories, credentials *auth.Table, idle time.Duration, log zerolog.Logger) *sessionService {
	s := &sessionService{
		sessions:    state.NewManager(nil),
		credentials: credentials,
		idle:        idle,
		log:         log.With().Str("service", "session").Logger(),
		now:         time.Now,
	}
	if repos != nil {
		s.seeds = repos.Credential
	}
	return s
}

// Start creates a new anonymous session
func (s *sessionService) Start() (string, *state.Store) {
	id, store := s.sessions.Create()
	s.log.Debug().Str("session_id", id).Msg("Session started")
	return id, store
}

// Get returns the store of an existing session
func (s *sessionService) Get(id string) (*state.Store, bool) {
	return s.sessions.Get(id)
}

// Anonymous returns a fresh store for a caller without a session. It is
// not tracked until Register.
func (s *sessionService) Anonymous() *state.Store {
	return s.sessions.New()
}

// Register starts tracking a store under a new session id
func (s *sessionService) Register(store *state.Store) string {
	id := s.sessions.Register(store)
	s.log.Debug().Str("session_id", id).Msg("Session started")
	return id
}

// Login checks credentials and marks the session as authenticated. The
// store is untouched when the credentials are rejected.
func (s *sessionService) Login(ctx context.Context, store *state.Store, username, password string) (models.Session, error) {
	session, err := s.credentials.Authenticate(username, password)
	if err != nil {
		s.log.Info().Str("username", username).Msg("Login rejected")
		return models.Session{}, err
	}

	if err := store.Login(session); err != nil {
		return models.Session{}, err
	}
	if _, err := store.Append(models.CollectionAuditLog, map[string]interface{}{
		"timestamp": s.now().UTC(),
		"username":  session.Username,
		"action":    "login",
		"details":   "role=" + string(session.Role),
	}); err != nil {
		s.log.Warn().Err(err).Str("username", session.Username).Msg("Failed to write audit entry")
	}

	s.log.Info().
		Str("username", session.Username).
		Str("role", string(session.Role)).
		Msg("Login succeeded")
	return session, nil
}

// Logout returns the store to its initial defaults, discarding all
// collected records along with the session, and tears the session id down.
func (s *sessionService) Logout(ctx context.Context, id string, store *state.Store) error {
	session, err := store.Session()
	if err != nil {
		return err
	}
	if err := store.Reset(); err != nil {
		return err
	}
	if id != "" {
		s.sessions.Delete(id)
	}
	s.log.Info().Str("username", session.Username).Msg("Logged out")
	return nil
}

// RunExpiry removes idle sessions until ctx is done. It returns at once
// when expiry is off.
func (s *sessionService) RunExpiry(ctx context.Context) {
	if s.idle <= 0 {
		return
	}
	ticker := time.NewTicker(s.idle / 2)
	defer ticker.Stop()

	s.log.Info().Dur("idle_timeout", s.idle).Msg("Session expiry started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Session expiry stopped")
			return
		case <-ticker.C:
			if n := s.sessions.ExpireIdle(s.idle); n > 0 {
				s.log.Info().Int("expired", n).Int("active", s.sessions.Len()).Msg("Idle sessions expired")
			}
		}
	}
}

// LoadSeeds adds database-provisioned credentials to the credential table.
// Entries that clash with existing usernames or carry bad hashes are skipped.
func (s *sessionService) LoadSeeds(ctx context.Context) (int, error) {
	if s.seeds == nil {
		return 0, nil
	}
	seeds, err := s.seeds.ListSeeds(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list credential seeds: %w", err)
	}

	loaded := 0
	for _, seed := range seeds {
		if err := s.credentials.Seed(seed); err != nil {
			if errors.Is(err, auth.ErrUserExists) {
				s.log.Debug().Str("username", seed.Username).Msg("Credential seed already present")
			} else {
				s.log.Warn().Err(err).Str("username", seed.Username).Msg("Skipping credential seed")
			}
			continue
		}
		loaded++
	}

	s.log.Info().Int("loaded", loaded).Int("total", len(seeds)).Msg("Credential seeds loaded")
	return loaded, nil
}

// Users lists the credential table for admins
func (s *sessionService) Users(store *state.Store) ([]auth.UserInfo, error) {
	session, err := requireSession(store)
	if err != nil {
		return nil, err
	}
	if !models.CanAccess(session, "users") {
		return nil, ErrAccessDenied
	}
	return s.credentials.Users(), nil
}

// ActiveSessions returns the number of live sessions
func (s *sessionService) ActiveSessions() int {
	return s.sessions.Len()
}

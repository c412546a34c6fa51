package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mathieu-neron/adwatch/internal/apperr"
	"github.com/mathieu-neron/adwatch/internal/middleware"
	"github.com/mathieu-neron/adwatch/internal/model"
)

// ProfileReader loads the viewer profile that seeds a session wallet.
type ProfileReader interface {
	FindProfile(ctx context.Context, userID string) (*model.Profile, error)
}

// Session is one viewer's open dashboard: its wallet and its reward overlay.
type Session struct {
	UserID    string
	Wallet    *Wallet
	Presenter *Presenter
	OpenedAt  time.Time
}

type SessionService struct {
	profiles    ProfileReader
	cashDisplay time.Duration
	renderer    func(userID string) Renderer

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionService creates a registry. renderer may be nil.
func NewSessionService(profiles ProfileReader, cashDisplay time.Duration, renderer func(userID string) Renderer) *SessionService {
	return &SessionService{
		profiles:    profiles,
		cashDisplay: cashDisplay,
		renderer:    renderer,
		sessions:    make(map[string]*Session),
	}
}

// Open returns the user's session, creating it from the stored profile if none is open.
func (s *SessionService) Open(ctx context.Context, userID string) (*Session, error) {
	if sess, err := s.Get(userID); err == nil {
		return sess, nil
	}

	profile, err := s.profiles.FindProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var renderer Renderer
	if s.renderer != nil {
		renderer = s.renderer(userID)
	}
	fresh := &Session{
		UserID:    userID,
		Wallet:    NewWallet(profile.CashWallet),
		Presenter: NewPresenter(s.cashDisplay, renderer),
		OpenedAt:  time.Now(),
	}

	s.mu.Lock()
	if existing, ok := s.sessions[userID]; ok {
		s.mu.Unlock()
		fresh.Presenter.Close()
		return existing, nil
	}
	s.sessions[userID] = fresh
	s.mu.Unlock()

	middleware.Logger.Info().
		Str("user_hash", middleware.UserHash(userID)).
		Str("balance", fresh.Wallet.Balance().StringFixed(2)).
		Msg("session: opened")
	return fresh, nil
}

// Get returns the open session for userID.
func (s *SessionService) Get(userID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, apperr.ErrSessionNotFound
	}
	return sess, nil
}

// Close discards the user's session. Calls still in flight keep their reference to the old session,
// so their results land on a wallet nobody reads any more; a reopened session reloads from the profile.
func (s *SessionService) Close(userID string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if !ok {
		return false
	}
	sess.Presenter.Close()
	middleware.Logger.Info().Str("user_hash", middleware.UserHash(userID)).Msg("session: closed")
	return true
}

// CloseAll closes every open session.
func (s *SessionService) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Presenter.Close()
	}
}

// Count returns the number of open sessions.
func (s *SessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

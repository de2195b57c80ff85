package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/TushxrTxndon/CampusBazaar/internal/metrics"
	"github.com/TushxrTxndon/CampusBazaar/internal/models"
	"github.com/TushxrTxndon/CampusBazaar/internal/store"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidProfile   = errors.New("invalid user profile")
)

// AuthStatus is the state of the shopper session
type AuthStatus int

const (
	StatusLoading AuthStatus = iota
	StatusAnonymous
	StatusAuthenticated
)

func (s AuthStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("AuthStatus(%d)", int(s))
	}
}

func (s AuthStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SessionSnapshot is what observers of the session receive
type SessionSnapshot struct {
	Status AuthStatus          `json:"status"`
	User   *models.UserProfile `json:"user"`
}

// SessionService tracks the logged-in shopper
type SessionService struct {
	mu       sync.Mutex
	status   AuthStatus
	user     *models.UserProfile
	doc      *store.Document[*models.UserProfile]
	metrics  *metrics.AppMetrics
	logger   *slog.Logger
	restored chan struct{}
	once     sync.Once
	subs     subscribers[SessionSnapshot]
}

// NewSessionService starts in the loading state until Restore runs
func NewSessionService(doc *store.Document[*models.UserProfile], m *metrics.AppMetrics, logger *slog.Logger) *SessionService {
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		status:   StatusLoading,
		doc:      doc,
		metrics:  m,
		logger:   logger.With("component", "session"),
		restored: make(chan struct{}),
	}
}

// Restore reads the persisted profile and leaves the loading state.
// A login that completed while loading wins over the persisted record.
func (s *SessionService) Restore(ctx context.Context) {
	s.once.Do(func() {
		user, ok := s.doc.Load(ctx)

		s.mu.Lock()
		if s.status == StatusLoading {
			if ok && user != nil && user.EmailID != "" {
				normalized := user.Normalize()
				s.user = &normalized
				s.status = StatusAuthenticated
			} else {
				s.status = StatusAnonymous
			}
		}
		snap := s.snapshotLocked()
		s.mu.Unlock()

		close(s.restored)
		s.metrics.RecordActiveUser(ctx, snap.Status == StatusAuthenticated)
		s.logger.Info("session restored", "status", snap.Status.String())
		s.subs.notify(snap)
	})
}

// Restored is closed once Restore has completed
func (s *SessionService) Restored() <-chan struct{} {
	return s.restored
}

// Login replaces the current profile with the normalized u and persists it
func (s *SessionService) Login(ctx context.Context, u models.UserProfile) (models.UserProfile, error) {
	if err := u.Validate(); err != nil {
		return models.UserProfile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	normalized := u.Normalize()

	s.mu.Lock()
	stored := normalized
	s.user = &stored
	s.status = StatusAuthenticated
	err := s.doc.Save(ctx, &stored)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("failed to persist session", "error", err)
	}
	s.metrics.RecordActiveUser(ctx, true)
	s.logger.Info("user logged in", "email", normalized.EmailID, "user_type", normalized.UserType)
	s.subs.notify(snap)
	return normalized, err
}

// loginVia logs u in and counts the login under method
func (s *SessionService) loginVia(ctx context.Context, method string, u models.UserProfile) (models.UserProfile, error) {
	user, err := s.Login(ctx, u)
	if !errors.Is(err, ErrInvalidProfile) {
		s.metrics.RecordLogin(ctx, method, user.UserType)
	}
	return user, err
}

// Logout forgets the profile and deletes the persisted record
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.status = StatusAnonymous
	err := s.doc.Clear(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("failed to clear session", "error", err)
	}
	s.metrics.RecordActiveUser(ctx, false)
	s.subs.notify(snap)
	return err
}

// Snapshot returns the current status and a copy of the profile
func (s *SessionService) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// User returns a copy of the profile, or nil when anonymous
func (s *SessionService) User() *models.UserProfile {
	return s.Snapshot().User
}

// IsAuthenticated reports whether a profile is present
func (s *SessionService) IsAuthenticated() bool {
	return s.User() != nil
}

// Status returns the session state
func (s *SessionService) Status() AuthStatus {
	return s.Snapshot().Status
}

// RequireUser returns the profile or ErrNotAuthenticated
func (s *SessionService) RequireUser() (*models.UserProfile, error) {
	if u := s.User(); u != nil {
		return u, nil
	}
	return nil, ErrNotAuthenticated
}

// Subscribe registers fn for every status or profile change
func (s *SessionService) Subscribe(fn func(SessionSnapshot)) func() {
	return s.subs.add(fn)
}

func (s *SessionService) snapshotLocked() SessionSnapshot {
	snap := SessionSnapshot{Status: s.status}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/backoff"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
)

// Session is one user's live notification list. Read state lives here and
// nowhere else, so it resets when the last reference goes away.
type Session struct {
	UserID uuid.UUID
	Model  *ListModel

	reconciler *Reconciler
	cancel     context.CancelFunc
	done       chan struct{}
	refs       int
}

// Unavailable returns the terminal stream error for this session, nil
// while updates still flow or reconnects are in progress.
func (s *Session) Unavailable() error {
	return s.reconciler.Err()
}

// Live reports whether the session's change stream is attached.
func (s *Session) Live() bool {
	return s.reconciler.Live()
}

// SessionsParams collects the session manager dependencies.
type SessionsParams struct {
	Logger *logger.Logger
	Repo   loader
	Bus    *Bus
	Policy backoff.Policy
	Clock  backoff.Clock

	// OnUpdate fires with the owning user whenever a session's list
	// changes, so connected clients can be told to re-render.
	OnUpdate func(userID uuid.UUID)
}

// Sessions tracks one Session per user, reference counted by attached
// connections.
type Sessions struct {
	logg     *logger.Logger
	repo     loader
	bus      *Bus
	policy   backoff.Policy
	clock    backoff.Clock
	onUpdate func(userID uuid.UUID)

	mtx    sync.Mutex
	byUser map[uuid.UUID]*Session
}

// NewSessions validates params and builds a session manager.
func NewSessions(params SessionsParams) (*Sessions, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("repository required")
	}
	if params.Bus == nil {
		return nil, fmt.Errorf("change bus required")
	}
	return &Sessions{
		logg:     params.Logger,
		repo:     params.Repo,
		bus:      params.Bus,
		policy:   params.Policy,
		clock:    params.Clock,
		onUpdate: params.OnUpdate,
		byUser:   make(map[uuid.UUID]*Session),
	}, nil
}

// Acquire returns the user's session, starting its reconciler on first
// use. Every Acquire must be paired with a Release.
func (s *Sessions) Acquire(userID uuid.UUID) (*Session, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if session, ok := s.byUser[userID]; ok {
		session.refs += 1
		return session, nil
	}

	session := &Session{
		UserID: userID,
		Model:  NewListModel(),
		done:   make(chan struct{}),
		refs:   1,
	}
	reconciler, err := NewReconciler(ReconcilerParams{
		Logger: s.logg,
		Repo:   s.repo,
		Feed:   s.bus.Attach(),
		Model:  session.Model,
		UserID: userID,
		OnUpdate: func() {
			if s.onUpdate != nil {
				s.onUpdate(userID)
			}
		},
		Policy: s.policy,
		Clock:  s.clock,
	})
	if err != nil {
		return nil, fmt.Errorf("build session reconciler: %w", err)
	}
	session.reconciler = reconciler

	ctx, cancel := context.WithCancel(context.Background())
	session.cancel = cancel
	go func() {
		defer close(session.done)
		if err := reconciler.Run(ctx); err != nil && ctx.Err() == nil {
			s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "session reconciler stopped", err)
		}
	}()

	s.byUser[userID] = session
	return session, nil
}

// Release drops one reference. The session is torn down when the last
// reference goes away.
func (s *Sessions) Release(userID uuid.UUID) {
	s.mtx.Lock()
	session, ok := s.byUser[userID]
	if !ok {
		s.mtx.Unlock()
		return
	}
	session.refs -= 1
	if session.refs > 0 {
		s.mtx.Unlock()
		return
	}
	delete(s.byUser, userID)
	s.mtx.Unlock()

	session.cancel()
	<-session.done
}

// Get returns the user's session without taking a reference.
func (s *Sessions) Get(userID uuid.UUID) (*Session, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	session, ok := s.byUser[userID]
	return session, ok
}

// Fanout adds a pushed notification to every matching session. A nil
// userID reaches all of them.
func (s *Sessions) Fanout(userID *uuid.UUID, item Notification) {
	s.mtx.Lock()
	targets := make([]*Session, 0, len(s.byUser))
	for id, session := range s.byUser {
		if userID == nil || *userID == id {
			targets = append(targets, session)
		}
	}
	s.mtx.Unlock()

	for _, session := range targets {
		session.Model.Add(item)
		if s.onUpdate != nil {
			s.onUpdate(session.UserID)
		}
	}
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.byUser)
}

package identity

import (
	"context"
	"sync"

	"imageconverter/logger"
	"imageconverter/models"
)

// Tracker owns the one live Session. Start subscribes to the provider and
// Close releases that subscription; between the two every provider event
// replaces the session.
type Tracker struct {
	provider Provider

	mu          sync.RWMutex
	user        *User
	listeners   map[int]func(*User)
	nextID      int
	unsubscribe func()
	started     bool
}

// NewTracker returns a signed-out tracker for p.
func NewTracker(p Provider) *Tracker {
	return &Tracker{
		provider:  p,
		listeners: make(map[int]func(*User)),
	}
}

// Start registers with the provider. The provider reports the current
// state synchronously, so the session is settled when Start returns.
func (t *Tracker) Start() {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	unsubscribe := t.provider.OnAuthStateChanged(t.handle)

	t.mu.Lock()
	t.unsubscribe = unsubscribe
	t.mu.Unlock()
}

// Close releases the provider registration and resets to signed out.
func (t *Tracker) Close() {
	t.mu.Lock()
	unsubscribe := t.unsubscribe
	t.unsubscribe = nil
	t.started = false
	t.user = nil
	t.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (t *Tracker) handle(u *User) {
	var snapshot *User
	if u != nil {
		cp := *u
		snapshot = &cp
	}

	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return
	}
	t.user = snapshot
	fns := make([]func(*User), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	if snapshot != nil {
		logger.Debugf("auth state changed: signed in as %q", snapshot.DisplayName)
	} else {
		logger.Debug("auth state changed: signed out")
	}
	for _, fn := range fns {
		fn(snapshot)
	}
}

// Subscribe calls onChange with the current user now and on every change
// until the returned function is called.
func (t *Tracker) Subscribe(onChange func(*User)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = onChange
	current := t.user
	t.mu.Unlock()

	onChange(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.listeners, id)
			t.mu.Unlock()
		})
	}
}

// SignIn opens the provider's interactive flow. Failures are logged and
// dropped; callers observe the outcome through the session only.
func (t *Tracker) SignIn(ctx context.Context) {
	if _, err := t.provider.SignInWithPopup(ctx); err != nil {
		logger.Warnf("sign-in did not complete: %v", err)
	}
}

// SignOut asks the provider to end the session. The change arrives as the
// next auth event.
func (t *Tracker) SignOut(ctx context.Context) {
	if err := t.provider.SignOut(ctx); err != nil {
		logger.Warnf("sign-out failed: %v", err)
	}
}

// User returns a copy of the signed-in user or nil.
func (t *Tracker) User() *User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.user == nil {
		return nil
	}
	cp := *t.user
	return &cp
}

// GetToken asks the provider for a fresh token on every call.
func (t *Tracker) GetToken(ctx context.Context) (string, error) {
	u := t.User()
	if u == nil {
		return "", models.ErrNotSignedIn
	}
	return t.provider.IDToken(ctx, u)
}

// Session returns the current session. Its TokenProvider always goes back
// to the provider.
func (t *Tracker) Session() models.Session {
	u := t.User()
	if u == nil {
		return models.SignedOut()
	}
	return models.Session{
		SignedIn:      true,
		UserID:        u.UID,
		DisplayName:   u.DisplayName,
		TokenProvider: t.GetToken,
	}
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"imageconverter/credentials"
	"imageconverter/logger"
	"imageconverter/models"
	"imageconverter/utils"

	"github.com/google/uuid"
)

const (
	accountKey = credentials.IdentityPrefix + "account"
	secretKey  = credentials.IdentityPrefix + "secret"
)

// AccountStore is the slice of credentials.Store the local provider needs.
type AccountStore interface {
	Get(key string) (map[string]string, error)
	Put(key string, value map[string]string) error
	Delete(key string) error
}

// LocalOptions configures a LocalProvider.
type LocalOptions struct {
	Issuer   string
	Secret   string
	TokenTTL time.Duration
	Now      func() time.Time
}

// LocalProvider is an identity provider that runs on this machine. The
// signed-in account survives restarts in the credentials store, and tokens
// are HS256 JWTs signed with a secret shared with the conversion endpoint.
type LocalProvider struct {
	store    AccountStore
	prompter Prompter
	issuer   string
	secret   string
	ttl      time.Duration
	now      func() time.Time

	mu        sync.Mutex
	current   *User
	listeners map[int]func(*User)
	nextID    int
}

// NewLocalProvider restores any persisted account. When opts.Secret is
// empty a random secret is generated once and kept in the store.
func NewLocalProvider(store AccountStore, prompter Prompter, opts LocalOptions) (*LocalProvider, error) {
	if store == nil {
		return nil, errors.New("account store is required")
	}
	if prompter == nil {
		return nil, errors.New("prompter is required")
	}
	p := &LocalProvider{
		store:     store,
		prompter:  prompter,
		issuer:    opts.Issuer,
		secret:    opts.Secret,
		ttl:       opts.TokenTTL,
		now:       opts.Now,
		listeners: make(map[int]func(*User)),
	}
	if p.ttl <= 0 {
		p.ttl = 5 * time.Minute
	}
	if p.now == nil {
		p.now = time.Now
	}

	if p.secret == "" {
		secret, err := loadOrCreateSecret(store)
		if err != nil {
			return nil, err
		}
		p.secret = secret
	}

	account, err := store.Get(accountKey)
	switch {
	case err == nil:
		if account["uid"] != "" {
			p.current = &User{UID: account["uid"], DisplayName: account["name"]}
			logger.Debugf("restored session for %q", account["name"])
		}
	case errors.Is(err, credentials.ErrNotFound):
	default:
		return nil, fmt.Errorf("load account: %w", err)
	}
	return p, nil
}

func loadOrCreateSecret(store AccountStore) (string, error) {
	entry, err := store.Get(secretKey)
	if err == nil && entry["value"] != "" {
		return entry["value"], nil
	}
	if err != nil && !errors.Is(err, credentials.ErrNotFound) {
		return "", fmt.Errorf("load token secret: %w", err)
	}
	secret, err := utils.GenerateRandomHex(32)
	if err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	if err := store.Put(secretKey, map[string]string{"value": secret}); err != nil {
		return "", fmt.Errorf("store token secret: %w", err)
	}
	return secret, nil
}

// Secret is the HS256 secret tokens are signed with.
func (p *LocalProvider) Secret() string { return p.secret }

// Issuer is the iss claim placed in tokens.
func (p *LocalProvider) Issuer() string { return p.issuer }

func (p *LocalProvider) OnAuthStateChanged(fn func(*User)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current := copyUser(p.current)
	p.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *LocalProvider) SignInWithPopup(ctx context.Context) (*User, error) {
	name, err := p.prompter.PromptDisplayName(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("display name is required")
	}

	u := &User{UID: uuid.NewString(), DisplayName: name}
	if err := p.store.Put(accountKey, map[string]string{"uid": u.UID, "name": u.DisplayName}); err != nil {
		return nil, fmt.Errorf("persist account: %w", err)
	}
	p.setCurrent(u)
	logger.Infof("signed in as %q", name)
	return copyUser(u), nil
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := p.store.Delete(accountKey); err != nil {
		return fmt.Errorf("forget account: %w", err)
	}
	p.setCurrent(nil)
	logger.Info("signed out")
	return nil
}

func (p *LocalProvider) IDToken(ctx context.Context, u *User) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	current := copyUser(p.current)
	p.mu.Unlock()

	if u == nil || current == nil || current.UID != u.UID {
		return "", ErrSessionLost
	}

	now := p.now()
	return utils.SignIDToken(&models.IDTokenClaims{
		Issuer:    p.issuer,
		Subject:   current.UID,
		Name:      current.DisplayName,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(p.ttl).Unix(),
	}, p.secret)
}

func (p *LocalProvider) setCurrent(u *User) {
	p.mu.Lock()
	p.current = copyUser(u)
	fns := make([]func(*User), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(copyUser(u))
	}
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

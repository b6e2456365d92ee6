package auth_test

import (
	"context"
	"sync"
	"time"

	auth "github.com/goliatone/go-auth-dwsp"
	"github.com/stretchr/testify/mock"
)

// MockAccountStore implements auth.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	args := m.Called(ctx, username)
	if acc, ok := args.Get(0).(*auth.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) GetByID(ctx context.Context, id string) (*auth.Account, error) {
	args := m.Called(ctx, id)
	if acc, ok := args.Get(0).(*auth.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) GetByRemoteIdentity(ctx context.Context, remoteIdentityID string) (*auth.Account, error) {
	args := m.Called(ctx, remoteIdentityID)
	if acc, ok := args.Get(0).(*auth.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) Insert(ctx context.Context, account *auth.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// memoryStore is an in-memory auth.AccountStore enforcing the same
// uniqueness rules as the database.
type memoryStore struct {
	mu       sync.Mutex
	accounts []*auth.Account
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (s *memoryStore) find(match func(*auth.Account) bool) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if match(acc) {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, auth.ErrAccountNotFound
}

func (s *memoryStore) GetByUsername(_ context.Context, username string) (*auth.Account, error) {
	return s.find(func(a *auth.Account) bool { return a.Username == username })
}

func (s *memoryStore) GetByID(_ context.Context, id string) (*auth.Account, error) {
	return s.find(func(a *auth.Account) bool { return a.ID.String() == id })
}

func (s *memoryStore) GetByRemoteIdentity(_ context.Context, remoteIdentityID string) (*auth.Account, error) {
	return s.find(func(a *auth.Account) bool {
		return a.RemoteIdentityID != "" && a.RemoteIdentityID == remoteIdentityID
	})
}

func (s *memoryStore) Insert(_ context.Context, account *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.ID == account.ID || acc.Username == account.Username ||
			(account.RemoteIdentityID != "" && acc.RemoteIdentityID == account.RemoteIdentityID) {
			return auth.ErrAccountConflict
		}
	}
	cp := *account
	s.accounts = append(s.accounts, &cp)
	return nil
}

func (s *memoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// recordingSink collects activity events.
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) Types() []auth.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

type testConfig struct {
	signingKey string
	tokenTTL   time.Duration
	cookieName string
	cookieTTL  time.Duration
	secure     bool
}

func newTestConfig() *testConfig {
	return &testConfig{signingKey: "test-signing-key"}
}

func (c *testConfig) GetSigningKey() string             { return c.signingKey }
func (c *testConfig) GetTokenExpiration() time.Duration { return c.tokenTTL }
func (c *testConfig) GetCookieName() string             { return c.cookieName }
func (c *testConfig) GetCookieDomain() string           { return "localhost" }
func (c *testConfig) GetCookieDuration() time.Duration  { return c.cookieTTL }
func (c *testConfig) GetCookieSecure() bool             { return c.secure }
func (c *testConfig) GetPasswordCost() int              { return 0 }
func (c *testConfig) GetHashConcurrency() int           { return 2 }

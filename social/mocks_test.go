package social_test

import (
	"context"
	"sync"

	auth "github.com/goliatone/go-auth-dwsp"
	"github.com/goliatone/go-auth-dwsp/social"
)

// fakeProvider serves canned responses per authorization code.
type fakeProvider struct {
	mu        sync.Mutex
	profiles  map[string]*social.RemoteProfile
	exchange  error
	userInfo  error
	authURL   string
	exchanged []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{profiles: map[string]*social.RemoteProfile{}}
}

func (p *fakeProvider) Name() string        { return "dwsp" }
func (p *fakeProvider) AuthCodeURL() string { return p.authURL }

func (p *fakeProvider) Exchange(_ context.Context, code string) (*social.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchanged = append(p.exchanged, code)
	if p.exchange != nil {
		return nil, p.exchange
	}
	return &social.Token{AccessToken: "token-" + code}, nil
}

func (p *fakeProvider) UserInfo(_ context.Context, token *social.Token) (*social.RemoteProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.userInfo != nil {
		return nil, p.userInfo
	}
	code := token.AccessToken[len("token-"):]
	profile, ok := p.profiles[code]
	if !ok {
		return nil, &social.ProviderError{Provider: "dwsp", Operation: "user_info", Code: social.CodeMissingAccount}
	}
	cp := *profile
	return &cp, nil
}

// memoryStore mirrors the database uniqueness rules.
type memoryStore struct {
	mu       sync.Mutex
	accounts []*auth.Account
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
		if acc.Username == account.Username ||
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

// racingStore hides the first remote identity lookup, simulating a
// concurrent login inserting the account in between.
type racingStore struct {
	*memoryStore
	once sync.Once
}

func (s *racingStore) GetByRemoteIdentity(ctx context.Context, remoteIdentityID string) (*auth.Account, error) {
	hidden := false
	s.once.Do(func() { hidden = true })
	if hidden {
		return nil, auth.ErrAccountNotFound
	}
	return s.memoryStore.GetByRemoteIdentity(ctx, remoteIdentityID)
}

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

func (r *recordingSink) last() auth.ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return auth.ActivityEvent{}
	}
	return r.events[len(r.events)-1]
}

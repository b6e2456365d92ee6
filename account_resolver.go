package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AccountResolver maps identity claims to local accounts and creates new
// ones. Uniqueness is enforced by the store, the resolver only translates
// violations into ErrAccountConflict.
type AccountResolver struct {
	store  AccountStore
	logger Logger
	now    func() time.Time
}

// NewAccountResolver returns a resolver over store.
func NewAccountResolver(store AccountStore) *AccountResolver {
	return &AccountResolver{
		store:  store,
		logger: defLogger(),
		now:    time.Now,
	}
}

// WithLogger sets the logger.
func (r *AccountResolver) WithLogger(logger Logger) *AccountResolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// FindByUsername returns ErrAccountNotFound when no account matches.
func (r *AccountResolver) FindByUsername(ctx context.Context, username string) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrAccountNotFound
	}
	return r.lookup(ctx, "username", func() (*Account, error) {
		return r.store.GetByUsername(ctx, username)
	})
}

// FindByID returns ErrAccountNotFound when no account matches.
func (r *AccountResolver) FindByID(ctx context.Context, id string) (*Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, WrapError(ErrAccountNotFound, err)
	}
	return r.lookup(ctx, "id", func() (*Account, error) {
		return r.store.GetByID(ctx, id)
	})
}

// FindByRemoteIdentity returns ErrAccountNotFound when no account is
// linked to remoteIdentityID.
func (r *AccountResolver) FindByRemoteIdentity(ctx context.Context, remoteIdentityID string) (*Account, error) {
	if strings.TrimSpace(remoteIdentityID) == "" {
		return nil, ErrAccountNotFound
	}
	return r.lookup(ctx, "remote_identity", func() (*Account, error) {
		return r.store.GetByRemoteIdentity(ctx, remoteIdentityID)
	})
}

// Create validates and inserts a new account with a fresh id.
func (r *AccountResolver) Create(ctx context.Context, input NewAccount) (*Account, error) {
	if err := validateNewAccount(input); err != nil {
		return nil, err
	}

	account := &Account{
		ID:               uuid.New(),
		Username:         strings.TrimSpace(input.Username),
		PasswordHash:     input.PasswordHash,
		RemoteIdentityID: input.RemoteIdentityID,
		CreatedAt:        r.now().UTC(),
	}

	if err := r.store.Insert(ctx, account); err != nil {
		if IsConflict(err) {
			r.logger.Info("account insert rejected by unique constraint",
				"username", account.Username,
				"remote_linked", account.IsRemoteLinked(),
			)
			return nil, WrapError(ErrAccountConflict, err)
		}
		r.logger.Error("account insert failed", "error", err)
		return nil, WrapError(ErrUpstream, err)
	}

	return account, nil
}

func (r *AccountResolver) lookup(ctx context.Context, by string, get func() (*Account, error)) (*Account, error) {
	account, err := get()
	switch {
	case err == nil && account != nil:
		return account, nil
	case err == nil, IsNotFound(err):
		return nil, ErrAccountNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, WrapError(ErrInternal, err)
	default:
		r.logger.Error("account lookup failed", "by", by, "error", err)
		return nil, WrapError(ErrUpstream, err)
	}
}

func validateNewAccount(input NewAccount) error {
	if strings.TrimSpace(input.Username) == "" {
		return WithMetadata(ErrInvalidAccount, map[string]any{"field": "username"})
	}
	if input.PasswordHash == "" && input.RemoteIdentityID == "" {
		return WithMetadata(ErrInvalidAccount, map[string]any{"field": "credentials"})
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	auth "github.com/goliatone/go-auth-dwsp"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountRepository implements auth.AccountStore using Bun.
type AccountRepository struct {
	db *bun.DB
}

var _ auth.AccountStore = (*AccountRepository)(nil)

// NewAccountRepository creates a new repository.
func NewAccountRepository(db *bun.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByUsername implements auth.AccountStore.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	return r.getOne(ctx, "acc.username = ?", username)
}

// GetByID implements auth.AccountStore.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*auth.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, auth.WrapError(auth.ErrAccountNotFound, err)
	}
	return r.getOne(ctx, "acc.id = ?", uid)
}

// GetByRemoteIdentity implements auth.AccountStore.
func (r *AccountRepository) GetByRemoteIdentity(ctx context.Context, remoteIdentityID string) (*auth.Account, error) {
	return r.getOne(ctx, "acc.remote_identity_id = ?", remoteIdentityID)
}

// Insert implements auth.AccountStore. Unique violations are reported as
// auth.ErrAccountConflict.
func (r *AccountRepository) Insert(ctx context.Context, account *auth.Account) error {
	if account == nil {
		return errors.New("insert account: nil record")
	}

	_, err := r.db.NewInsert().
		Model(account).
		Exec(ctx)
	if err != nil {
		if IsUniqueViolation(err) {
			return auth.WrapError(auth.ErrAccountConflict, err)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Count returns the number of stored accounts.
func (r *AccountRepository) Count(ctx context.Context) (int, error) {
	return r.db.NewSelect().
		Model((*auth.Account)(nil)).
		Count(ctx)
}

func (r *AccountRepository) getOne(ctx context.Context, where string, arg any) (*auth.Account, error) {
	account := new(auth.Account)
	err := r.db.NewSelect().
		Model(account).
		Where(where, arg).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrAccountNotFound
		}
		return nil, fmt.Errorf("select account: %w", err)
	}
	return account, nil
}

// CreateSchema creates the accounts table when missing.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().
		Model((*auth.Account)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create accounts table: %w", err)
	}
	return nil
}

package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the durable local identity record. It is created once, by
// registration or by first-time provider login, and never updated here.
type Account struct {
	bun.BaseModel    `bun:"table:accounts,alias:acc"`
	ID               uuid.UUID `bun:"id,pk,type:uuid" json:"uuid"`
	Username         string    `bun:"username,notnull,unique" json:"username"`
	PasswordHash     string    `bun:"password_hash,nullzero" json:"-"`
	RemoteIdentityID string    `bun:"remote_identity_id,nullzero,unique" json:"-"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// HasPassword reports whether the account can log in locally.
func (a *Account) HasPassword() bool {
	return a != nil && a.PasswordHash != ""
}

// IsRemoteLinked reports whether the account is linked to the provider.
func (a *Account) IsRemoteLinked() bool {
	return a != nil && a.RemoteIdentityID != ""
}

// Profile returns the client facing projection of the account.
func (a *Account) Profile() AccountProfile {
	return AccountProfile{
		Username:      a.Username,
		UUID:          a.ID.String(),
		CreatedAt:     a.CreatedAt,
		DWSPConnected: a.IsRemoteLinked(),
	}
}

// AccountProfile is what authenticated endpoints expose about an account.
type AccountProfile struct {
	Username      string    `json:"username"`
	UUID          string    `json:"uuid"`
	CreatedAt     time.Time `json:"createdAt"`
	DWSPConnected bool      `json:"dwspConnected"`
}

// NewAccount describes an account to be created.
type NewAccount struct {
	Username         string
	PasswordHash     string
	RemoteIdentityID string
}

// SessionToken is a signed, stateless session credential.
type SessionToken struct {
	Value     string
	Subject   string
	ExpiresAt time.Time
}

package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned when credentials are rejected.
var ErrUnauthorized = errors.New("unauthorized")

// Credentials hold the values submitted on the admin login screen.
type Credentials struct {
	Username string
	Password string
}

// Authenticator decides whether credentials grant access to the admin
// dashboard.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) error
}

// AllowAll accepts any credentials. It is the storefront default, where the
// admin login is a navigation step rather than a security boundary.
type AllowAll struct{}

// Authenticate always succeeds.
func (AllowAll) Authenticate(context.Context, Credentials) error { return nil }

// HMACAuthenticator verifies the password by computing its HMAC-SHA256 with a
// pepper and comparing it in constant time with a configured hex hash.
type HMACAuthenticator struct {
	hash   []byte
	pepper []byte
}

// NewHMACAuthenticator returns an authenticator for the given hex-encoded
// HMAC-SHA256 password hash.
func NewHMACAuthenticator(hexHash string, pepper []byte) (*HMACAuthenticator, error) {
	hash, err := hex.DecodeString(hexHash)
	if err != nil {
		return nil, errors.Wrap(err, "decode password hash")
	}
	if len(hash) != sha256.Size {
		return nil, errors.Errorf("password hash must be %d bytes, got %d", sha256.Size, len(hash))
	}
	return &HMACAuthenticator{hash: hash, pepper: pepper}, nil
}

// Authenticate returns ErrUnauthorized unless the password matches.
func (a *HMACAuthenticator) Authenticate(_ context.Context, creds Credentials) error {
	if subtle.ConstantTimeCompare(HashPassword(creds.Password, a.pepper), a.hash) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// HashPassword computes the HMAC-SHA256 of password keyed by pepper.
func HashPassword(password string, pepper []byte) []byte {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

package identity

// CredentialStore owns password hashing and verification for a user record.
// The zero value is usable.
type CredentialStore struct{}

var _ PasswordAuthenticator = CredentialStore{}

// HashPassword satisfies PasswordAuthenticator.
func (CredentialStore) HashPassword(password string) (string, error) {
	return HashPassword(password)
}

// ComparePasswordAndHash satisfies PasswordAuthenticator.
func (CredentialStore) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}

// SetPassword hashes plaintext onto the user. The plaintext is never stored
// or returned.
func (c CredentialStore) SetPassword(user *User, plaintext string) error {
	if user == nil {
		return ErrIdentityNotFound
	}

	hash, err := c.HashPassword(plaintext)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	return nil
}

// CheckPassword reports whether plaintext matches the user's stored hash.
// A nil user or a user with no password set yields false; the boolean is the
// only signal, so callers cannot tell "wrong password" from "no such check".
func (c CredentialStore) CheckPassword(user *User, plaintext string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return c.ComparePasswordAndHash(plaintext, user.PasswordHash) == nil
}

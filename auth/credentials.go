// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// User is one entry of the credentials file.
type User struct {
	PasswordHash string `yaml:"password_hash"`
	Email        string `yaml:"email,omitempty"`
	Admin        bool   `yaml:"admin"`
}

// Credentials is the parsed credentials file:
//
//	users:
//	  alice:
//	    password_hash: $2a$10$...
//	    admin: true
type Credentials struct {
	Users map[string]User `yaml:"users"`
}

// dummyHash keeps the cost of unknown-user logins equal to real ones.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

func LoadCredentials(path string) (*Credentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	return ParseCredentials(raw)
}

func ParseCredentials(raw []byte) (*Credentials, error) {
	var creds Credentials
	if err := yaml.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	if len(creds.Users) == 0 {
		return nil, fmt.Errorf("credentials file defines no users")
	}
	for name, u := range creds.Users {
		if u.PasswordHash == "" {
			return nil, fmt.Errorf("user %q has no password_hash", name)
		}
	}
	return &creds, nil
}

// Verify checks a password against the stored bcrypt hash.
func (c *Credentials) Verify(username, password string) (User, error) {
	user, ok := c.Users[username]
	if !ok {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// HashPassword returns a bcrypt hash for the credentials file.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

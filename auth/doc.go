// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth authenticates users against a credentials file and issues
signed bearer tokens.

# Credentials

Users live in a YAML file:

	users:
	  alice:
	    password_hash: $2a$10$...
	    email: alice@example.com
	  root:
	    password_hash: $2a$10$...
	    admin: true

Hashes are bcrypt. Verify spends the same time on unknown users as on known
ones.

# Tokens

Login returns an HS256 JWT carrying the username, the admin flag and a
random jti. The jti is the session ID: it keys the respondent's navigation
state, so two logins of the same user page through surveys independently.

	a := auth.NewAuthenticator(creds, auth.NewIssuer(secret, 12*time.Hour))
	res, err := a.Login("alice", "wonderland")
	id, err := a.Authenticate(r) // Authorization: Bearer <token>

# Context

middleware.RequireUser stores the Identity in the request context:

	id, ok := auth.FromContext(r.Context())
*/
package auth

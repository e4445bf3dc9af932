// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Flags win over environment variables, which win over defaults.

# Environment Variables

	PORT                  → -p              (3318)
	DATABASE_URL          → -d              (required)
	DATABASE_TYPE         → -t              (sqlite)
	JWT_SECRET            → -jwt-secret     (required)
	TOKEN_TTL             → -token-ttl      (12h)
	CREDENTIALS_FILE      → -credentials    (required)
	SESSION_BACKEND       → -sessions       (memory)
	REDIS_ADDR            → -redis          (required for redis sessions)
	SESSION_TTL           → -session-ttl    (24h)
	NULL_END_DATE_POLICY  → -null-end-date  (closed)
	MAX_IMAGE_WIDTH       → -max-image-width (1024)
	LOGIN_RATE            → -login-rate     (10 per minute)
	LOG_LEVEL             → -log-level      (info)
	LOG_FORMAT            → -log-format     (text)
	LOG_FILE              → -log-file
*/
package cliparse

// Package auth provides HS256 JWT session tokens for the admin UI.
package auth

// Package store provides persistence for users, captured leads and
// conversation interactions, backed by SQLite.
package store

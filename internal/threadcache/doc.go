// Package threadcache provides an in-process, time-bounded fallback store
// for conversation thread handles, used only when the durable store fails.
package threadcache

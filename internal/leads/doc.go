// Package leads validates and persists contact information captured by the
// assistant's lead-gathering tool.
package leads

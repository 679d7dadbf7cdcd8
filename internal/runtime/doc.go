// Package runtime abstracts the remote assistant service: conversation
// threads, asynchronous runs, and the tool-call suspend/resume protocol.
package runtime

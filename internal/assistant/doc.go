// Package assistant orchestrates conversation runs against the remote
// assistant runtime: thread resolution with durable and transient storage,
// the bounded poll loop, in-loop tool-call resolution, and reply extraction.
package assistant

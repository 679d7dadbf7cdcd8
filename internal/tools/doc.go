// Package tools resolves function calls requested by suspended assistant
// runs, producing exactly one structured output per call.
package tools

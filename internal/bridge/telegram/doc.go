// Package telegram is the chat frontend: a long-polling Bot API client and a
// bridge that routes commands and relays free text to the assistant service.
package telegram

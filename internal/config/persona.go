// ABOUTME: Persona reply texts loaded from an optional TOML file
// ABOUTME: Built-in defaults cover every reply so the file can be partial or absent

package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Persona holds the canned reply texts the bot sends outside of
// assistant-generated responses.
type Persona struct {
	Start    string `toml:"start"`
	Help     string `toml:"help"`
	About    string `toml:"about"`
	Reset    string `toml:"reset"`
	ResetErr string `toml:"reset_error"`
	NonText  string `toml:"non_text"`
	Apology  string `toml:"apology"`
	Empty    string `toml:"empty"`
}

// DefaultPersona returns the built-in reply texts.
func DefaultPersona() Persona {
	return Persona{
		Start:    "Hi! I'm your assistant. Send me a message and I'll do my best to help. Use /help to see what I can do.",
		Help:     "Send me any message and I'll answer. Commands:\n/start - introduction\n/help - this message\n/about - about this bot\n/reset - start a fresh conversation",
		About:    "I'm a conversational assistant bot. Your messages are relayed to an AI assistant that replies here.",
		Reset:    "Your conversation has been reset. We're starting fresh!",
		ResetErr: "Sorry, I couldn't reset your conversation right now. Please try again later.",
		NonText:  "I can only handle text messages for now. Please send me text.",
		Apology:  "Sorry, I encountered an error while processing your request. Please try again later.",
		Empty:    "I couldn't generate a response. Please try again.",
	}
}

// LoadPersona reads reply texts from a TOML file at path, falling back to
// the built-in defaults for any field the file leaves empty. An empty path
// returns the defaults unchanged.
func LoadPersona(path string) (Persona, error) {
	p := DefaultPersona()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("reading persona file: %w", err)
	}

	var file Persona
	if err := toml.Unmarshal(data, &file); err != nil {
		return p, fmt.Errorf("parsing persona file: %w", err)
	}

	p.merge(file)
	return p, nil
}

func (p *Persona) merge(o Persona) {
	if o.Start != "" {
		p.Start = o.Start
	}
	if o.Help != "" {
		p.Help = o.Help
	}
	if o.About != "" {
		p.About = o.About
	}
	if o.Reset != "" {
		p.Reset = o.Reset
	}
	if o.ResetErr != "" {
		p.ResetErr = o.ResetErr
	}
	if o.NonText != "" {
		p.NonText = o.NonText
	}
	if o.Apology != "" {
		p.Apology = o.Apology
	}
	if o.Empty != "" {
		p.Empty = o.Empty
	}
}

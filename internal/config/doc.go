// Package config loads the YAML application configuration, with ${VAR}
// environment expansion and duration parsing, plus the optional TOML
// persona file that customizes the bot's canned replies.
package config

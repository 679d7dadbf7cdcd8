// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, duration parsing, and defaults

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "123:abc"

assistant:
  api_key: "sk-test"
  assistant_id: "asst_123"
  poll_interval: "2s"
  poll_budget: 30

database:
  path: "./test.db"

logging:
  level: "debug"
  format: "json"

webadmin:
  enabled: true
  addr: "localhost:9090"
  password: "hunter2"
  jwt_secret: "secret"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Telegram.BotToken != "123:abc" {
		t.Errorf("BotToken = %q, want %q", cfg.Telegram.BotToken, "123:abc")
	}
	if cfg.Assistant.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.Assistant.PollInterval)
	}
	if cfg.Assistant.PollBudget != 30 {
		t.Errorf("PollBudget = %d, want 30", cfg.Assistant.PollBudget)
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want ./test.db", cfg.Database.Path)
	}
	if cfg.WebAdmin.Addr != "localhost:9090" {
		t.Errorf("WebAdmin.Addr = %q, want localhost:9090", cfg.WebAdmin.Addr)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "123:abc"

assistant:
  api_key: "sk-test"
  assistant_id: "asst_123"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Assistant.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s default", cfg.Assistant.PollInterval)
	}
	if cfg.Assistant.PollBudget != 60 {
		t.Errorf("PollBudget = %d, want 60 default", cfg.Assistant.PollBudget)
	}
	if cfg.Database.Path != "./parley.db" {
		t.Errorf("Database.Path = %q, want default", cfg.Database.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info default", cfg.Logging.Level)
	}
	if cfg.WebAdmin.Addr != "localhost:8080" {
		t.Errorf("WebAdmin.Addr = %q, want default", cfg.WebAdmin.Addr)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("PARLEY_TEST_TOKEN", "tok-from-env")
	t.Setenv("PARLEY_TEST_KEY", "key-from-env")

	path := writeConfig(t, `
telegram:
  bot_token: "${PARLEY_TEST_TOKEN}"

assistant:
  api_key: "${PARLEY_TEST_KEY}"
  assistant_id: "asst_123"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Telegram.BotToken != "tok-from-env" {
		t.Errorf("BotToken = %q, want value from env", cfg.Telegram.BotToken)
	}
	if cfg.Assistant.APIKey != "key-from-env" {
		t.Errorf("APIKey = %q, want value from env", cfg.Assistant.APIKey)
	}
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "${PARLEY_DEFINITELY_UNSET_VAR}"

assistant:
  api_key: "sk-test"
  assistant_id: "asst_123"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should fail validation when required value expands to empty")
	}
	if !strings.Contains(err.Error(), "bot_token") {
		t.Errorf("error = %v, want mention of bot_token", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "123:abc"

assistant:
  api_key: "sk-test"
  assistant_id: "asst_123"
  poll_interval: "not-a-duration"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should fail on invalid duration")
	}
	if !strings.Contains(err.Error(), "poll_interval") {
		t.Errorf("error = %v, want mention of poll_interval", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() should fail for missing file")
	}
}

func TestValidate_WebAdminRequirements(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "123:abc"

assistant:
  api_key: "sk-test"
  assistant_id: "asst_123"

webadmin:
  enabled: true
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should fail when webadmin enabled without password")
	}
	if !strings.Contains(err.Error(), "webadmin.password") {
		t.Errorf("error = %v, want mention of webadmin.password", err)
	}
}

func TestValidate_MissingAssistantID(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "123:abc"

assistant:
  api_key: "sk-test"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should fail without assistant_id")
	}
	if !strings.Contains(err.Error(), "assistant_id") {
		t.Errorf("error = %v, want mention of assistant_id", err)
	}
}

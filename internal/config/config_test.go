package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "")
	cfg, err := Load("does-not-exist.yaml")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 50, cfg.History.Limit)
	assert.Equal(t, 30*time.Minute, cfg.History.IdleTTL)
}

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", `
server:
  port: 9090
database:
  driver: mysql
  host: db
  port: 3306
  user: whatif
  password: pw
  name: whatif
llm:
  model: gpt-4o
history:
  limit: 20
  idleTTL: 10m
`)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.Model)
	assert.Equal(t, 20, cfg.History.Limit)
	assert.Equal(t, 10*time.Minute, cfg.History.IdleTTL)
	assert.Equal(t, "whatif:pw@tcp(db:3306)/whatif?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "JWT_SECRET=from-dotenv\n")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Auth.JWTSecret)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := Load(writeFile(t, dir, "bad.yaml", "database:\n  driver: oracle\n"))
	assert.Error(t, err)

	t.Setenv("PORT", "eighty")
	_, err = Load("")
	assert.Error(t, err)
}

func TestDSNHelpers(t *testing.T) {
	cfg := Default()
	assert.Contains(t, cfg.SQLiteDSN(), "file:whatif.db?")
	cfg.Database.Path = ":memory:"
	assert.Equal(t, "file::memory:?cache=shared", cfg.SQLiteDSN())

	cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name = "pg", 5432, "u", "p", "d"
	assert.Equal(t, "host=pg port=5432 user=u password=p dbname=d sslmode=disable", cfg.PostgresDSN())

	cfg.Database.DSN = "explicit"
	assert.Equal(t, "explicit", cfg.PostgresDSN())
	assert.Equal(t, "explicit", cfg.MySQLDSN())
	assert.Equal(t, "explicit", cfg.SQLiteDSN())
}

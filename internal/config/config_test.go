package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_PORT", "")
	t.Setenv("PORT", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*24*time.Hour, cfg.TokenTTL)
}

func TestLoad_BadPortFallsBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")

	cfg := Load()
	assert.Equal(t, 5432, cfg.DBPort)
}

func TestLoadFile_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
port: "9000"
db_driver: sqlite3
sqlite_path: /tmp/x.db
jwt_secret: from-file
token_ttl: 1h
allowed_origins: ["https://a.example", "https://b.example"]
timezone: Europe/Berlin
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "/tmp/x.db", cfg.ConnString())
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestLoadFile_Validation(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	tests := []struct {
		name string
		yml  string
	}{
		{"missing secret", "db_driver: postgres\n"},
		{"bad driver", "db_driver: mysql\njwt_secret: s\n"},
		{"bad timezone", "jwt_secret: s\ntimezone: Mars/Olympus\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yml), 0o644))

			_, err := LoadFile(path)
			assert.Error(t, err)
		})
	}
}

func TestConnString_Postgres(t *testing.T) {
	cfg := &Config{
		DBDriver:   "postgres",
		DBHost:     "db",
		DBPort:     5433,
		DBUser:     "u",
		DBPassword: "p",
		DBName:     "goals",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=goals sslmode=disable", cfg.ConnString())

	cfg.DatabaseURL = "postgres://u:p@db/goals"
	assert.Equal(t, "postgres://u:p@db/goals", cfg.ConnString())
}

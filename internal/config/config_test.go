package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  driver: mysql
  host: 127.0.0.1
  port: 3306
  user: root
  dbname: seed_eval
oracle:
  provider: openai
  rate_per_second: 2
  burst: 1
  openai:
    model: gpt-4o-mini
harness:
  base_dir: /tmp/seed
  min_confidence: 0.8
capabilities:
  shipment:
    oracle_url: http://localhost:8100/ai/shipment
    rule_url: http://localhost:8100/rule/shipment
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "utf8mb4", cfg.Database.Charset)
	assert.Equal(t, "openai", cfg.Oracle.Provider)
	assert.Equal(t, 2.0, cfg.Oracle.RatePerSecond)
	assert.Equal(t, 0.8, cfg.Harness.MinConfidence)
	assert.Equal(t, "patterns", cfg.Harness.PatternsDir)
	assert.Equal(t, "http://localhost:8100/rule/shipment", cfg.Capabilities["shipment"].RuleURL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"未知 provider", "oracle:\n  provider: llama\n"},
		{"置信度越界", "harness:\n  min_confidence: 1.5\n"},
		{"能力缺少 URL", "capabilities:\n  shipment:\n    oracle_url: http://a\n"},
		{"能力 URL 格式错误", "capabilities:\n  shipment:\n    oracle_url: http://a\n    rule_url: not a url\n"},
		{"人设缺少名字", "harness:\n  personas:\n    - key: x\n"},
		{"yaml 语法错误", "server: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8001, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "seed_eval.db", cfg.Database.Path)
	assert.Equal(t, "dify", cfg.Oracle.Provider)
	assert.Equal(t, 0.7, cfg.Harness.MinConfidence)
}

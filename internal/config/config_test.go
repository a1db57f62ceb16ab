package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Pipeline: PipelineConfig{
			QueueCapacity:   1000,
			MaxInFlight:     1000,
			ReadBufferBytes: 1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func TestValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:8090", cfg.Server.Addr())
}

func TestValidate_BadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidate_EmptyHost(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Host = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_BadPipeline(t *testing.T) {
	cfg := validConfig()
	cfg.Pipeline.QueueCapacity = 0
	cfg.Pipeline.MaxInFlight = -1
	cfg.Pipeline.ReadBufferBytes = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.queue_capacity")
	assert.Contains(t, err.Error(), "pipeline.max_in_flight")
	assert.Contains(t, err.Error(), "pipeline.read_buffer_bytes")
}

func TestValidate_BadLogging(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidate_PortProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := validConfig()
		cfg.Server.Port = rapid.IntRange(-1000, 70000).Draw(t, "port")
		err := cfg.Validate()
		if cfg.Server.Port >= 1 && cfg.Server.Port <= 65535 {
			if err != nil {
				t.Fatalf("port %d should be valid: %v", cfg.Server.Port, err)
			}
		} else if err == nil {
			t.Fatalf("port %d should be invalid", cfg.Server.Port)
		}
	})
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: 127.0.0.1
  port: 9000
pipeline:
  queue_capacity: 500
  max_in_flight: 250
  read_buffer_bytes: 2048
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
	assert.Equal(t, 500, cfg.Pipeline.QueueCapacity)
	assert.Equal(t, int64(250), cfg.Pipeline.MaxInFlight)
	assert.Equal(t, 2048, cfg.Pipeline.ReadBufferBytes)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_DefaultsFillGaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8090", cfg.Server.Addr())
	assert.Equal(t, 1000, cfg.Pipeline.QueueCapacity)
	assert.Equal(t, int64(1000), cfg.Pipeline.MaxInFlight)
	assert.Equal(t, 1024, cfg.Pipeline.ReadBufferBytes)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromViper_Invalid(t *testing.T) {
	v := viper.New()
	v.Set("server.host", "0.0.0.0")
	v.Set("server.port", -1)
	_, err := LoadFromViper(v)
	assert.Error(t, err)
}

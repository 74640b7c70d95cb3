package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoadFrom tests precedence of defaults, file and environment
func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no file and no env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, int64(32<<20), cfg.Server.MaxUploadBytes)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, "FECHA", cfg.Pipeline.DateColumn)
				assert.Equal(t, "TONELAJE", cfg.Pipeline.VolumeColumn)
				assert.Equal(t, []string{"REGULACION 1", "REGULACION 2", "REGULACION 3"}, cfg.Pipeline.RegulationColumns)
				assert.Equal(t, "02-01-2006", cfg.Pipeline.DateLayout)
				assert.True(t, cfg.Pipeline.LooseCarrierMatching)
				assert.Equal(t, "M&Q SPA", cfg.Pipeline.CarrierAliases["M AND Q SPA"])
				assert.Equal(t, 2*time.Hour, cfg.Sessions.TTL)
			},
		},
		{
			name: "file overrides defaults",
			file: `
server:
  port: 9090
  read_timeout: 5s
pipeline:
  volume_column: PESO
  regulation_columns: ["REG A"]
  carrier_aliases:
    "ACME LTDA": "ACME"
sessions:
  ttl: 10m
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout, "untouched keys keep defaults")
				assert.Equal(t, "PESO", cfg.Pipeline.VolumeColumn)
				assert.Equal(t, "FECHA", cfg.Pipeline.DateColumn)
				assert.Equal(t, []string{"REG A"}, cfg.Pipeline.RegulationColumns)
				assert.Equal(t, map[string]string{"ACME LTDA": "ACME"}, cfg.Pipeline.CarrierAliases, "alias table is replaced, not merged")
				assert.Equal(t, 10*time.Minute, cfg.Sessions.TTL)
			},
		},
		{
			name: "env overrides file",
			env: map[string]string{
				"HAUL_SERVER_PORT":                     "7070",
				"HAUL_PIPELINE_LOOSE_CARRIER_MATCHING": "false",
				"HAUL_LOGGING_LEVEL":                   "debug",
			},
			file: `
server:
  port: 9090
logging:
  level: warn
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.False(t, cfg.Pipeline.LooseCarrierMatching)
			},
		},
		{
			name: "env list values",
			env: map[string]string{
				"HAUL_PIPELINE_REGULATION_COLUMNS": "R1,R2",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"R1", "R2"}, cfg.Pipeline.RegulationColumns)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"HAUL_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"HAUL_SERVER_PORT": "eighty"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: true,
		},
		{
			name: "duplicate column names",
			file: `
pipeline:
  carrier_column: DESTINO
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}

func TestPipelineConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PipelineConfig)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*PipelineConfig) {}},
		{name: "no regulation columns is valid", mutate: func(p *PipelineConfig) { p.RegulationColumns = nil }},
		{name: "empty date column", mutate: func(p *PipelineConfig) { p.DateColumn = " " }, wantErr: "date column must be set"},
		{name: "regulation reuses volume", mutate: func(p *PipelineConfig) { p.RegulationColumns = []string{"TONELAJE"} }, wantErr: "already used"},
		{name: "empty layout", mutate: func(p *PipelineConfig) { p.DateLayout = "" }, wantErr: "date layout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPipelineConfig()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultCarrierAliasesIsFresh(t *testing.T) {
	a := DefaultCarrierAliases()
	a["M AND Q SPA"] = "changed"

	assert.Equal(t, "M&Q SPA", DefaultCarrierAliases()["M AND Q SPA"])
}

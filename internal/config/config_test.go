package config

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vpcinfo.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"
format = "json"

[http]
timeout = "5s"

[registry]
max_resident = 64
parallel = 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout.Std())
	assert.Equal(t, "vpcinfo", cfg.HTTP.UserAgent, "unset keys keep defaults")
	assert.Equal(t, 64, cfg.Registry.MaxResident)
	assert.Equal(t, 8, cfg.Registry.Parallel)
	assert.Equal(t, Default().Catalog.STACVersions, cfg.Catalog.STACVersions)
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]string{
		"bad level":      "[log]\nlevel = \"loud\"\n",
		"bad format":     "[log]\nformat = \"xml\"\n",
		"bad duration":   "[http]\ntimeout = \"soon\"\n",
		"negative cap":   "[registry]\nmax_resident = -1\n",
		"zero parallel":  "[registry]\nparallel = 0\n",
		"bad constraint": "[catalog]\nstac_versions = \"one point oh\"\n",
		"unknown key":    "[log]\ncolour = true\n",
		"not toml":       "[log\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHTTPClientSetsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	cfg := Default()
	cfg.HTTP.UserAgent = "survey-tool/1.0"
	client := cfg.HTTPClient()
	assert.Equal(t, 30*time.Second, client.Timeout)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "survey-tool/1.0", got)
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/layer-3/afip/config"
	"github.com/layer-3/afip/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
wsdl_wsaa: https://wsaahomo.afip.gov.ar/ws/services/LoginCms?wsdl
wsdl_wsfe: https://wswhomo.afip.gov.ar/wsfev1/service.asmx?WSDL
ta_file: /var/lib/afip/TA.xml
private_key_file: /etc/afip/key.pem
crt_file: /etc/afip/cert.crt
key_phrase: secret
cuit: 20123456789
sell_point: 3
timeout: 10s
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "afip.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "https://wsaahomo.afip.gov.ar/ws/services/LoginCms?wsdl", cfg.WSDLWSAA)
	assert.Equal(t, int64(20123456789), cfg.Cuit)
	assert.Equal(t, 3, cfg.SellPoint)
	assert.Equal(t, "secret", cfg.KeyPhrase)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "wsfe", cfg.Service)
	assert.Equal(t, config.StoreFile, cfg.TicketStore)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AFIP_CUIT", "30712345678")
	t.Setenv("AFIP_SELL_POINT", "7")
	t.Setenv("AFIP_TICKET_STORE", "memory")
	t.Setenv("AFIP_PROXY_HOST", "proxy.local")
	t.Setenv("AFIP_PROXY_PORT", "3128")
	t.Setenv("AFIP_PUBLISH_EVENTS", "true")

	cfg, err := config.Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, int64(30712345678), cfg.Cuit)
	assert.Equal(t, 7, cfg.SellPoint)
	assert.Equal(t, config.StoreMemory, cfg.TicketStore)
	assert.Equal(t, "proxy.local", cfg.ProxyHost)
	assert.Equal(t, 3128, cfg.ProxyPort)
	assert.True(t, cfg.PublishEvents)
}

func TestLoad_ServiceOverrideRejected(t *testing.T) {
	t.Setenv("AFIP_SERVICE", "wsmtxca")

	_, err := config.Load(writeConfig(t, sample))
	assert.ErrorIs(t, err, core.ErrConfig)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("AFIP_CUIT", "not-a-number")

	_, err := config.Load(writeConfig(t, sample))
	assert.ErrorIs(t, err, core.ErrConfig)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, core.ErrConfig)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := config.Load(writeConfig(t, "cuit: [1, 2"))
	assert.ErrorIs(t, err, core.ErrConfig)
}

func TestValidate(t *testing.T) {
	valid, err := config.Load(writeConfig(t, sample))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"missing wsaa wsdl", func(c *config.Config) { c.WSDLWSAA = "" }, "wsdl_wsaa is required"},
		{"missing wsfe wsdl", func(c *config.Config) { c.WSDLWSFE = "" }, "wsdl_wsfe is required"},
		{"missing certificate", func(c *config.Config) { c.CrtFile = "" }, "crt_file is required"},
		{"missing cuit", func(c *config.Config) { c.Cuit = 0 }, "cuit is required"},
		{"missing sell point", func(c *config.Config) { c.SellPoint = 0 }, "sell_point is required"},
		{"missing ta file", func(c *config.Config) { c.TAFile = "" }, "ta_file is required"},
		{"proxy without port", func(c *config.Config) { c.ProxyHost = "proxy" }, "proxy_port is required"},
		{"unknown store", func(c *config.Config) { c.TicketStore = "s3" }, "unknown ticket_store"},
		{"service other than wsfe", func(c *config.Config) { c.Service = "wsmtxca" }, `service must be "wsfe"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	memory := valid
	memory.TicketStore = config.StoreMemory
	memory.TAFile = ""
	assert.NoError(t, memory.Validate())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

const minimalYAML = `
database:
  host: 127.0.0.1
  name: canteen
  user: root
jwt:
  secret: 0123456789abcdef0123
`

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(writeYAML(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, "mysql", c.Database.Driver)
	assert.Equal(t, 3306, c.Database.Port)
	assert.Equal(t, 5*time.Second, c.OpTimeout())
	assert.Equal(t, 2*time.Hour, c.ConnMaxLifetime())
	assert.Equal(t, "canteen.events", c.Kafka.EventTopic)
	assert.Equal(t, []string{"*"}, c.HTTP.AllowedOrigins)
	assert.False(t, c.OTel.Enable)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CANTEEN_DATABASE_OP_TIMEOUT_MS", "1500")
	t.Setenv("CANTEEN_DATABASE_PASSWORD", "s3cret")
	t.Setenv("CANTEEN_HTTP_ADDR", ":9090")
	c, err := Load(writeYAML(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, c.OpTimeout())
	assert.Equal(t, "s3cret", c.Database.Password)
	assert.Equal(t, ":9090", c.HTTP.Addr)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("CANTEEN_DATABASE_DSN", "root:pw@tcp(db:3306)/canteen")
	t.Setenv("CANTEEN_JWT_SECRET", "0123456789abcdef0123")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "root:pw@tcp(db:3306)/canteen", c.Database.DSN)
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]string{
		"short secret": `
database: {host: h, name: n}
jwt: {secret: short}
`,
		"no database": `
jwt: {secret: 0123456789abcdef0123}
`,
		"bad driver": `
database: {driver: oracle, dsn: x}
jwt: {secret: 0123456789abcdef0123}
`,
		"postgres without dsn": `
database: {driver: postgres, host: h, name: n}
jwt: {secret: 0123456789abcdef0123}
`,
		"otel without endpoint": minimalYAML + `
otel: {enable: true}
`,
		"redis without addr": minimalYAML + `
redis: {enable: true}
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

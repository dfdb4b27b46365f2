package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "netgraph.yaml", `
layout:
  width: 1024
  repulsion: -400
  seed: 7
  excludeHidden: true
view:
  maxScale: 4
serve:
  port: 9000
  interval: 20ms
log:
  verbosity: 2
`},
		{"toml", "netgraph.toml", `
[layout]
width = 1024.0
repulsion = -400.0
seed = 7
excludeHidden = true

[view]
maxScale = 4.0

[serve]
port = 9000
interval = "20ms"

[log]
verbosity = 2
`},
		{"json", "netgraph.json", `{
  "layout": {"width": 1024, "repulsion": -400, "seed": 7, "excludeHidden": true},
  "view": {"maxScale": 4},
  "serve": {"port": 9000, "interval": "20ms"},
  "log": {"verbosity": 2}
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(write(t, tt.file, tt.content))
			require.NoError(t, err)

			opts := c.Options()
			assert.Equal(t, 1024.0, opts.Width)
			assert.Equal(t, -400.0, opts.Repulsion)
			assert.Equal(t, uint64(7), opts.Seed)
			assert.True(t, opts.ExcludeHidden)
			assert.Equal(t, 4.0, opts.MaxScale)
			assert.Zero(t, opts.Height, "unset values are left for the component defaults")

			assert.Equal(t, "localhost:9000", c.Serve.Addr())
			d, err := c.Serve.FrameInterval()
			require.NoError(t, err)
			assert.Equal(t, 20*time.Millisecond, d)
			assert.Equal(t, 2, c.Log.Verbosity)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		c, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "localhost:8080", c.Serve.Addr())
		assert.False(t, c.Serve.Watch)
		d, err := c.Serve.FrameInterval()
		require.NoError(t, err)
		assert.Zero(t, d)
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(write(t, "netgraph.ini", "width=1"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(write(t, "netgraph.yaml", "layout: [1, 2"))
	assert.Error(t, err)

	_, err = Load(write(t, "netgraph.yaml", "serve:\n  interval: soon\n"))
	assert.Error(t, err)

	_, err = Load(write(t, "netgraph.json", `{"serve": {"interval": "-1s"}}`))
	assert.Error(t, err)
}

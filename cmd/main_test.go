package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		env      string
		debug    bool
		info     bool
		json     bool
		warnings string
	}{
		{env: envLocal, debug: true, info: true},
		{env: envDev, info: true},
		{env: envProd, info: true, json: true},
		{env: "staging", json: true, warnings: "available_envs"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var out bytes.Buffer
			log := setupLogger(tt.env, &out)
			ctx := context.Background()

			assert.Equal(t, tt.debug, log.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.info, log.Enabled(ctx, slog.LevelInfo))
			assert.True(t, log.Enabled(ctx, slog.LevelError))

			if tt.warnings != "" {
				assert.Contains(t, out.String(), tt.warnings)
			}

			out.Reset()
			log.Error("probe")
			if tt.json {
				assert.Contains(t, out.String(), `"msg":"probe"`)
			} else {
				assert.Contains(t, out.String(), "msg=probe")
			}
		})
	}
}

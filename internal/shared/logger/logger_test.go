package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"viewsim/internal/shared/types"
)

func TestInitWithWriter_JSONComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithWriter(types.LogConf{Level: "debug", Format: "json"}, &buf))
	buf.Reset()

	l := WithComponent("ProxyPool/Manager")
	l.Info().Int("working", 3).Msg("Proxy pool ready.")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	require.Equal(t, "ProxyPool/Manager", entry["component"])
	require.Equal(t, "info", entry["level"])
	require.Equal(t, float64(3), entry["working"])
}

func TestWithComponent_ChainedCall(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithWriter(types.LogConf{Level: "debug", Format: "json"}, &buf))
	buf.Reset()

	WithComponent("Simulator").Warn().Str("tab", "1").Msg("chained")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	require.Equal(t, "Simulator", entry["component"])
	require.Equal(t, "warn", entry["level"])
}

func TestInitWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithWriter(types.LogConf{Level: "warn", Format: "json"}, &buf))
	Debug().Msg("hidden")
	Info().Msg("hidden too")
	require.Empty(t, buf.String())
	Warn().Str("k", "v").Msg("shown")
	require.Contains(t, buf.String(), `"k":"v"`)
}

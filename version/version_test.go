package version

import (
	"encoding/json"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBuildInfo(t *testing.T) {
	info := Info{Version: "0.0.0", Branch: "unknown", Revision: "unknown", BuiltAt: "unknown"}
	fromBuildInfo(&info, &debug.BuildInfo{
		Main: debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2024-05-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	assert.Equal(t, "v1.4.0", info.Version)
	assert.Equal(t, "0123456", info.Revision)
	assert.Equal(t, "2024-05-01T10:00:00Z", info.BuiltAt)
	assert.True(t, info.Modified)
}

func TestFromBuildInfoKeepsLinkerValues(t *testing.T) {
	info := Info{Version: "2.0.0", Revision: "abc", BuiltAt: "yesterday"}
	fromBuildInfo(&info, &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffff"}},
	})
	assert.Equal(t, "2.0.0", info.Version)
	assert.Equal(t, "abc", info.Revision)
	assert.Equal(t, "yesterday", info.BuiltAt)
}

func TestInfoJSON(t *testing.T) {
	s, err := Info{Version: "1.0.0", GoVersion: "go1.24"}.JSON()
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &back))
	assert.Equal(t, "1.0.0", back["version"])
	assert.NotContains(t, back, "modified")
}

package version_test

import (
	"testing"

	"github.com/quantmind-br/docstranslate/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_String_Short_Full(t *testing.T) {
	origV, origB, origC := version.Version, version.BuildTime, version.Commit
	defer func() { version.Version, version.BuildTime, version.Commit = origV, origB, origC }()

	version.Version = "1.2.3"
	version.BuildTime = "2026-10-01T00:00:00Z"
	version.Commit = "deadbeef"

	info := version.Get()
	require.Equal(t, "1.2.3", info.Version)
	require.Equal(t, "2026-10-01T00:00:00Z", info.BuildTime)
	require.Equal(t, "deadbeef", info.Commit)

	require.NotEmpty(t, info.GoVersion)
	require.NotEmpty(t, info.OS)
	require.NotEmpty(t, info.Arch)

	assert.Equal(t, "1.2.3", version.Short())
	assert.Contains(t, version.Full(), "docstranslate 1.2.3")
	assert.Contains(t, info.String(), "docstranslate 1.2.3 (commit: deadbeef, built: 2026-10-01T00:00:00Z")
}

func TestUserAgent(t *testing.T) {
	orig := version.Version
	defer func() { version.Version = orig }()

	version.Version = "0.4.0"
	assert.Equal(t, "docstranslate/0.4.0", version.UserAgent())
}

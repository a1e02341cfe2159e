package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unitab-io/unitab/version"
)

func TestGet(t *testing.T) {
	t.Parallel()

	info := version.Get()

	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.Revision)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestString(t *testing.T) {
	t.Parallel()

	info := version.Info{
		Version:   "1.2.3",
		Revision:  "abc123",
		GoVersion: "go1.25.0",
		Platform:  "linux/amd64",
	}

	assert.Equal(t, "unitab 1.2.3 (revision abc123, go1.25.0, linux/amd64)", info.String())
}

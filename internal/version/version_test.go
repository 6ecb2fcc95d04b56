package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, BuildTime)
	assert.NotEmpty(t, GitCommit)
}

func TestString(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v1.2.3"

	s := String()
	assert.Contains(t, s, "dist v1.2.3")
	assert.Contains(t, s, runtime.GOOS+"/"+runtime.GOARCH)
}

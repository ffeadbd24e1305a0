package cmd

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionString(t *testing.T) {
	s := versionString()
	assert.Contains(t, s, "mockexam "+version)
	assert.Contains(t, s, runtime.GOOS+"/"+runtime.GOARCH)
}

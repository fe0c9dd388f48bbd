package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeString(t *testing.T) {
	assert.Equal(t, "", MakeString(" "))
	assert.Equal(t, "a", MakeString(" ", "a"))
	assert.Equal(t, "a b c", MakeString(" ", "a", "b", "c"))
	assert.Equal(t, "abc", MakeString("", "a", "b", "c"))
}

func TestGetVerbose(t *testing.T) {
	defer func() { Verbosity = 0 }()
	Verbosity = -2
	assert.Equal(t, int32(0), getVerbose())
	Verbosity = 3
	assert.Equal(t, int32(3), getVerbose())
	Verbosity = 12
	assert.Equal(t, int32(4), getVerbose())
}

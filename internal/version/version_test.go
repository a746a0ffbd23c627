package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	Banner(&buf, false)

	out := buf.String()
	assert.Contains(t, out, Name+" "+Version+"\n")
	assert.Contains(t, out, "commit "+GitCommit)
	assert.NotContains(t, out, "\x1b[", "no escape codes without color")
}

func TestBuildIDIsStable(t *testing.T) {
	id := BuildID()
	assert.NotEmpty(t, id)
	assert.Equal(t, id, BuildID())
}

func TestFullInfo(t *testing.T) {
	assert.Contains(t, FullInfo(), Version)
	assert.Equal(t, Version, Info())
}

package version_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/szz/pkg/version"
)

func TestString(t *testing.T) {
	t.Parallel()

	version.InitBinaryVersion()

	out := version.String()
	assert.True(t, strings.HasPrefix(out, "szz "))
	assert.Contains(t, out, "commit: ")
	assert.Contains(t, out, version.Version)
}

package bmeta

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeta_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New("v1.2.0", "", "abc123").Write(&buf))

	assert.Equal(t, "Build version: v1.2.0\nBuild date: N/A\nBuild commit: abc123\n", buf.String())
}

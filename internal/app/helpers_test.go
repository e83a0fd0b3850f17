package app

import (
	"bytes"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressLine(t *testing.T) {
	var buf bytes.Buffer
	progressLine(&buf, "Upserting", 100, 365)
	assert.Equal(t, "\rUpserting 100/365 (27%)", buf.String())

	buf.Reset()
	progressLine(&buf, "Upserting", 365, 365)
	assert.Equal(t, "\rUpserting 365/365 (100%)\n", buf.String())

	buf.Reset()
	progressLine(&buf, "Upserting", 0, 0)
	assert.Equal(t, "\rUpserting 0/0 (100%)\n", buf.String())
}

func TestTerminalProgressNotATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "progress")
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTerminal(f))
	assert.Nil(t, TerminalProgress(f, "Upserting"))
}

func TestQueryDate(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/matrix?from=2025-12-20&to=bientot", nil)

	d, ok, err := queryDate(r, "from")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, day("2025-12-20"), d)

	_, ok, err = queryDate(r, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = queryDate(r, "to")
	assert.ErrorContains(t, err, "to:")
}

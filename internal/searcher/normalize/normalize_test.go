package normalize

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	n, err := New("")
	require.NoError(t, err)
	assert.IsType(t, Lowercase{}, n)

	n, err = New("English")
	require.NoError(t, err)
	assert.IsType(t, &Snowball{}, n)

	_, err = New("klingon")
	assert.Error(t, err)
}

func TestNew_StemmerWarns(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	_, err := New("none")
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	_, err = New("english")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "language=english")
}

func TestSnowball(t *testing.T) {
	n, err := NewSnowball("english")
	require.NoError(t, err)
	assert.Equal(t, "run", n.Normalize("Running"))
	assert.Equal(t, "cat", n.Normalize("cats"))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"the", "cat"}, Tokens(Lowercase{}, "  The\tCAT "))
	assert.Empty(t, Tokens(Lowercase{}, "   "))
}

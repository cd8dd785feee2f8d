package game

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

func TestJoinCodeFromSource(t *testing.T) {
	code, err := joinCodeFrom(bytes.NewReader([]byte{0, 1, 31, 32, 255, 8}))
	require.NoError(t, err)
	require.Equal(t, "AB9A9J", code)
	require.True(t, ValidJoinCode(code))
}

func TestJoinCodeFromFailingSource(t *testing.T) {
	boom := errors.New("entropy unavailable")
	_, err := joinCodeFrom(iotest.ErrReader(boom))
	require.ErrorIs(t, err, boom)

	_, err = joinCodeFrom(bytes.NewReader([]byte{1, 2}))
	require.Error(t, err)
}

func TestNewJoinCodeUsesAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := NewJoinCode()
		require.True(t, ValidJoinCode(code), code)
		require.False(t, strings.ContainsAny(code, "IO01"), code)
	}
}

func TestValidJoinCode(t *testing.T) {
	require.True(t, ValidJoinCode(NormalizeJoinCode("  abcdef ")))
	require.False(t, ValidJoinCode("ABCDE"))
	require.False(t, ValidJoinCode("ABCDE1"))
	require.False(t, ValidJoinCode("abcdef"))
}

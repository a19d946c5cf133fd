package alliance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	side, err := Parse(" Red ")
	require.NoError(t, err)
	require.Equal(t, Red, side)

	side, err = Parse("BLUE")
	require.NoError(t, err)
	require.Equal(t, Blue, side)

	_, err = Parse("green")
	require.Error(t, err)
}

func TestSide_Mirrored(t *testing.T) {
	require.False(t, Blue.Mirrored())
	require.True(t, Red.Mirrored())
}

func TestSide_TextRoundTrip(t *testing.T) {
	var s Side
	require.NoError(t, s.UnmarshalText([]byte("red")))
	require.Equal(t, Red, s)

	text, err := s.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "red", string(text))

	require.Error(t, s.UnmarshalText([]byte("purple")))
}

func TestSelector_Toggle(t *testing.T) {
	sel := NewSelector(Blue)
	require.False(t, sel.Mirror())

	require.Equal(t, Red, sel.Toggle())
	require.True(t, sel.Mirror())

	require.Equal(t, Blue, sel.Toggle())
	require.Equal(t, Blue, sel.Side())
}

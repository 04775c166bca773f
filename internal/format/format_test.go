package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigits(t *testing.T) {
	t.Parallel()

	require.Equal(t, "৩৬ টি ভিডিও", Digits("36 টি ভিডিও", "bn"))
	require.Equal(t, "36 videos", Digits("36 videos", "en"))
}

func TestInt(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1,234,567", Int(1234567, "en"))
	require.Equal(t, "-1,000", Int(-1000, "en"))
	require.Equal(t, "১২,৩৪৫", Int(12345, "bn"))
	require.Equal(t, "0", Int(0, "en"))
}

func TestPosition(t *testing.T) {
	t.Parallel()

	require.Equal(t, "2 / 5", Position(1, 5, "en"))
	require.Equal(t, "১ / ৩", Position(0, 3, "bn"))
	require.Empty(t, Position(0, 0, "en"))
}

package contents

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString_EncodeDecodeRoundTrips(t *testing.T) {
	b, err := String.Encode("hello")
	require.NoError(t, err)
	v, err := String.Decode(b)
	require.NoError(t, err)
	require.Equal(t, "hello", v)
}

func TestCounter_EncodeDecodeRoundTrips(t *testing.T) {
	b, err := Counter.Encode(42)
	require.NoError(t, err)
	v, err := Counter.Decode(b)
	require.NoError(t, err)
	require.Equal(t, int64(42), v)
}

func TestCounter_MergeSumsDeltas(t *testing.T) {
	v, err := Counter.Merge(10, 15, 8)
	require.NoError(t, err)
	require.Equal(t, int64(13), v)
}

func TestJSONBag_MergeIsPerField(t *testing.T) {
	old := JSONBag{"name": "a", "age": "1"}
	a := JSONBag{"name": "b", "age": "1"}
	b := JSONBag{"name": "a", "age": "2"}

	merged, err := JSONBagCap.Merge(old, a, b)
	require.NoError(t, err)
	require.Equal(t, JSONBag{"name": "b", "age": "2"}, merged)
}

func TestJSONBag_EncodeDecodeRoundTrips(t *testing.T) {
	v := JSONBag{"k": "v"}
	data, err := JSONBagCap.Encode(v)
	require.NoError(t, err)
	got, err := JSONBagCap.Decode(data)
	require.NoError(t, err)
	require.Equal(t, v, got)
}

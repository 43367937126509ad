package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKey_GetReturnsDefaultWhenAbsent(t *testing.T) {
	d := Dict{}
	require.Equal(t, "", Root.Get(d))
	require.Equal(t, true, Bare.Get(d))
	require.Equal(t, false, Disk.Get(d))
}

func TestKey_GetReturnsStoredValue(t *testing.T) {
	d := Dict{
		"root": String("/var/dagkv"),
		"bare": Bool(false),
		"disk": Bool(true),
	}
	require.Equal(t, "/var/dagkv", Root.Get(d))
	require.Equal(t, false, Bare.Get(d))
	require.Equal(t, true, Disk.Get(d))
}

func TestKey_GetFallsBackOnKindMismatch(t *testing.T) {
	d := Dict{"bare": String("not-a-bool")}
	require.Equal(t, true, Bare.Get(d))
}

func TestParseYAML_DecodesFlatScalars(t *testing.T) {
	d, err := ParseYAML([]byte("root: /data\nbare: false\nmax_depth: 10\n"))
	require.NoError(t, err)
	require.Equal(t, "/data", Root.Get(d))
	require.Equal(t, false, Bare.Get(d))
	require.Equal(t, int64(10), IntKey("max_depth", 0).Get(d))
}

func TestParseYAML_RejectsNestedValues(t *testing.T) {
	_, err := ParseYAML([]byte("nested:\n  a: 1\n"))
	require.Error(t, err)
}

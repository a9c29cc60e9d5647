package record

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_Set(t *testing.T) {
	r := NewSet("key1", "value1")
	encoded, err := Encode(r)
	require.NoError(t, err)

	decoded, err := Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.NotNil(t, decoded)
	require.Equal(t, r, *decoded)
}

func TestEncodeDecode_Remove(t *testing.T) {
	r := NewRemove("key1")
	encoded, err := Encode(r)
	require.NoError(t, err)

	decoded, err := Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Equal(t, r, *decoded)
}

func TestEncodeDecode_GetAndReset_WireOnly(t *testing.T) {
	for _, r := range []Record{NewGet("k"), NewReset()} {
		encoded, err := Encode(r)
		require.NoError(t, err)

		decoded, err := Decode(bytes.NewReader(encoded))
		require.NoError(t, err)
		require.Equal(t, r, *decoded)
	}
}

func TestEncodeSegment_RejectsWireOnly(t *testing.T) {
	_, err := EncodeSegment(NewGet("k"))
	require.ErrorIs(t, err, ErrUnwritableVariant)

	_, err = EncodeSegment(NewReset())
	require.ErrorIs(t, err, ErrUnwritableVariant)

	_, err = EncodeSegment(NewSet("k", "v"))
	require.NoError(t, err)
}

func TestDecode_EOFAtRecordBoundary(t *testing.T) {
	decoded, err := Decode(bytes.NewReader(nil))
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestDecode_UnknownTag(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{'x'}))
	require.ErrorIs(t, err, ErrUnknownTag)
}

func TestDecode_TruncatedRecord(t *testing.T) {
	encoded, err := Encode(NewSet("key1", "value1"))
	require.NoError(t, err)

	_, err = Decode(bytes.NewReader(encoded[:len(encoded)-2]))
	require.Error(t, err)
}

func TestDecode_InvalidUTF8Key(t *testing.T) {
	encoded, err := Encode(NewSet("key1", "value1"))
	require.NoError(t, err)

	// Corrupt the key bytes (offset 1+4) with a lone continuation byte,
	// which is never valid as the start or middle of a UTF-8 sequence.
	encoded[5] = 0x80

	_, err = Decode(bytes.NewReader(encoded))
	require.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestDecode_InvalidUTF8Value(t *testing.T) {
	r := NewSet("key1", "value1")
	encoded, err := Encode(r)
	require.NoError(t, err)

	valOff, ok := ValueOffset(r)
	require.True(t, ok)
	encoded[valOff+4] = 0xff

	_, err = Decode(bytes.NewReader(encoded))
	require.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestValueOffset(t *testing.T) {
	off, ok := ValueOffset(NewSet("key1", "value1"))
	require.True(t, ok)
	require.EqualValues(t, 1+4+len("key1"), off)

	_, ok = ValueOffset(NewRemove("key1"))
	require.False(t, ok)
}

func TestSize_MatchesEncodedLength(t *testing.T) {
	for _, r := range []Record{NewSet("a", "bb"), NewRemove("a"), NewGet("a"), NewReset()} {
		encoded, err := Encode(r)
		require.NoError(t, err)
		require.Equal(t, len(encoded), Size(r))
	}
}

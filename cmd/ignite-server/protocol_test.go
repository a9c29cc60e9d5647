package main

import (
	"bytes"
	"testing"

	"github.com/ignitedb/ignite/internal/record"
	"github.com/stretchr/testify/require"
)

func TestRequestHeader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(1)
	buf.WriteByte(1)
	buf.Write([]byte{0x00, 0x02})
	buf.Write([]byte{0x00, 0x00, 0x00, 0x10})
	buf.Write([]byte{0x00, 0x00, 0x00, 0x00})

	header, err := readRequestHeader(&buf)
	require.NoError(t, err)
	require.Equal(t, uint8(1), header.Version)
	require.Equal(t, uint8(1), header.KeepAlive)
	require.Equal(t, uint16(2), header.CommandCount)
	require.Equal(t, uint32(16), header.BodySize)
}

func TestDecodeCommands_SetGetRemove(t *testing.T) {
	var body bytes.Buffer
	for _, r := range []record.Record{
		record.NewSet("k", "v"),
		record.NewGet("k"),
		record.NewRemove("k"),
	} {
		encoded, err := record.Encode(r)
		require.NoError(t, err)
		body.Write(encoded)
	}

	commands, err := decodeCommands(body.Bytes(), 3)
	require.NoError(t, err)
	require.Len(t, commands, 3)
	require.Equal(t, record.KindSet, commands[0].Kind)
	require.Equal(t, record.KindGet, commands[1].Kind)
	require.Equal(t, record.KindRemove, commands[2].Kind)
}

func TestDecodeCommands_CountMismatch(t *testing.T) {
	encoded, err := record.Encode(record.NewGet("k"))
	require.NoError(t, err)

	_, err = decodeCommands(encoded, 2)
	require.Error(t, err)
}

func TestEncodeResponseBody_GetFoundAndMissing(t *testing.T) {
	body, err := encodeResponseBody([]responseCommand{
		{kind: record.KindGet, value: "v", found: true},
		{kind: record.KindGet, found: false},
		{kind: record.KindSet},
	})
	require.NoError(t, err)

	require.Equal(t, byte('g'), body[0])
	require.Equal(t, byte(1), body[1]) // presence byte
}

// Command ignite-server is the length-prefixed binary protocol front end:
// each connection sends a fixed header followed by a body of concatenated
// commands, and receives a mirrored response.
package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ignitedb/ignite/internal/record"
)

// protocolVersion is the version this server speaks; a request naming a
// higher version is rejected.
const protocolVersion uint8 = 1

// requestHeader is the fixed-width frame preceding every request body:
// version(u8), keepAlive(u8), commandCount(u16be), bodySize(u32be),
// reserved(u32be).
type requestHeader struct {
	Version      uint8
	KeepAlive    uint8
	CommandCount uint16
	BodySize     uint32
	Reserved     uint32
}

const requestHeaderSize = 1 + 1 + 2 + 4 + 4

func readRequestHeader(r io.Reader) (requestHeader, error) {
	var buf [requestHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return requestHeader{}, err
	}
	return requestHeader{
		Version:      buf[0],
		KeepAlive:    buf[1],
		CommandCount: binary.BigEndian.Uint16(buf[2:4]),
		BodySize:     binary.BigEndian.Uint32(buf[4:8]),
		Reserved:     binary.BigEndian.Uint32(buf[8:12]),
	}, nil
}

// responseHeader mirrors requestHeader's shape.
type responseHeader struct {
	Version      uint8
	Reserved1    uint8
	CommandCount uint16
	BodySize     uint32
	Reserved2    uint32
}

func writeResponseHeader(w io.Writer, h responseHeader) error {
	var buf [requestHeaderSize]byte
	buf[0] = h.Version
	buf[1] = h.Reserved1
	binary.BigEndian.PutUint16(buf[2:4], h.CommandCount)
	binary.BigEndian.PutUint32(buf[4:8], h.BodySize)
	binary.BigEndian.PutUint32(buf[8:12], h.Reserved2)
	_, err := w.Write(buf[:])
	return err
}

// responseCommand is one reply in a response body. Only Get carries a
// value; every other command's reply is just its tag byte.
type responseCommand struct {
	kind  record.Kind
	value string
	found bool
}

func encodeResponseBody(responses []responseCommand) ([]byte, error) {
	var buf bytes.Buffer
	for _, resp := range responses {
		buf.WriteByte(byte(resp.kind))
		if resp.kind == record.KindGet {
			if resp.found {
				buf.WriteByte(1)
				if err := binary.Write(&buf, binary.BigEndian, uint32(len(resp.value))); err != nil {
					return nil, err
				}
				buf.WriteString(resp.value)
			} else {
				buf.WriteByte(0)
			}
		}
	}
	return buf.Bytes(), nil
}

// decodeCommands reads exactly count wire commands from body.
func decodeCommands(body []byte, count uint16) ([]record.Record, error) {
	r := bytes.NewReader(body)
	commands := make([]record.Record, 0, count)

	for i := uint16(0); i < count; i++ {
		rec, err := record.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("decoding command %d: %w", i, err)
		}
		if rec == nil {
			return nil, fmt.Errorf("expected %d commands, found %d", count, len(commands))
		}
		commands = append(commands, *rec)
	}
	return commands, nil
}

// Package proto implements the Discord Rich Presence wire protocol: the
// opcode/length framing, the JSON command envelope, and the payload types
// exchanged over the local IPC transport.
package proto

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Opcode is the 4-byte little-endian tag on every frame.
type Opcode uint32

const (
	OpcodeHandshake Opcode = iota
	OpcodeFrame
	OpcodeClose
	OpcodePing
	OpcodePong
)

func (o Opcode) String() string {
	switch o {
	case OpcodeHandshake:
		return "HANDSHAKE"
	case OpcodeFrame:
		return "FRAME"
	case OpcodeClose:
		return "CLOSE"
	case OpcodePing:
		return "PING"
	case OpcodePong:
		return "PONG"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint32(o))
	}
}

// Valid reports whether o is one of the five known opcodes.
func (o Opcode) Valid() bool {
	return o <= OpcodePong
}

// MaxPayloadSize is the maximum number of payload bytes a frame may carry,
// excluding the 8-byte header.
const MaxPayloadSize = 16 * 1024

// HeaderSize is the size in bytes of the opcode+length header.
const HeaderSize = 8

var (
	// ErrFrameTooLarge is returned when an encoded or decoded payload exceeds
	// MaxPayloadSize.
	ErrFrameTooLarge = errors.New("proto: frame payload exceeds 16KiB limit")
	// ErrUnknownOpcode indicates desync: the peer sent an opcode outside the
	// known set. The caller must terminate the connection.
	ErrUnknownOpcode = errors.New("proto: unknown opcode")
	// ErrIncompleteHeader is returned when fewer than HeaderSize bytes are
	// available, and by Decode when buf holds fewer payload bytes than the
	// header declares; it is not itself a protocol error if the connection
	// is still live.
	ErrIncompleteHeader = errors.New("proto: incomplete frame header")
)

// RawFrame is a decoded frame before JSON interpretation of its payload.
type RawFrame struct {
	Opcode  Opcode
	Payload []byte
}

// EncodeHeader builds the 8-byte opcode+length header for payload.
func EncodeHeader(opcode Opcode, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}

	header := make([]byte, 0, HeaderSize)
	header = binary.LittleEndian.AppendUint32(header, uint32(opcode))
	header = binary.LittleEndian.AppendUint32(header, uint32(len(payload)))

	return header, nil
}

// Encode concatenates the header and payload into a single frame buffer.
func Encode(opcode Opcode, payload []byte) ([]byte, error) {
	header, err := EncodeHeader(opcode, payload)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, len(header)+len(payload))
	buf = append(buf, header...)
	buf = append(buf, payload...)

	return buf, nil
}

// DecodeHeader parses the opcode and declared payload length out of an
// 8-byte header. It does not validate the opcode; callers check Valid().
func DecodeHeader(header []byte) (opcode Opcode, length uint32, err error) {
	if len(header) < HeaderSize {
		return 0, 0, ErrIncompleteHeader
	}

	opcode = Opcode(binary.LittleEndian.Uint32(header[0:4]))
	length = binary.LittleEndian.Uint32(header[4:8])

	if length > MaxPayloadSize {
		return opcode, length, ErrFrameTooLarge
	}

	return opcode, length, nil
}

// Decode parses a full frame (header + payload) out of buf, returning the
// frame and the number of bytes consumed.
func Decode(buf []byte) (*RawFrame, int, error) {
	opcode, length, err := DecodeHeader(buf)
	if err != nil {
		return nil, 0, err
	}

	if uint32(len(buf))-HeaderSize < length {
		return nil, 0, ErrIncompleteHeader
	}

	payload := make([]byte, length)
	copy(payload, buf[HeaderSize:HeaderSize+length])

	return &RawFrame{Opcode: opcode, Payload: payload}, HeaderSize + int(length), nil
}

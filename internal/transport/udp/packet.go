// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"audioviz/internal/analysis"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Amplitude         | float32        | 4            | Overall level [0, 1]    |
| Band Count        | uint16         | 2            | Number of floats (N)    |
| Bands             | []float32      | N * 4        | Band levels [0, 1]      |
+-----------------------------------------------------------------------------+
*/

// HeaderSize is the size of the fixed part of a packet.
const HeaderSize = 4 + 8 + 4 + 2

// PacketSize is the size of a packet carrying a full frame.
const PacketSize = HeaderSize + analysis.BandCount*4

// Packet is a decoded frame packet.
type Packet struct {
	Seq       uint32
	Timestamp time.Time
	Amplitude float32
	Bands     []float32
}

var errShortPacket = errors.New("short packet")

// EncodePacket appends the packet for f to buf.
func EncodePacket(buf []byte, seq uint32, ts time.Time, f *analysis.Frame) []byte {
	buf = binary.BigEndian.AppendUint32(buf, seq)
	buf = binary.BigEndian.AppendUint64(buf, uint64(ts.UnixNano()))
	buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(float32(f.Amplitude)))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(f.Bands)))
	for _, v := range f.Bands {
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(float32(v)))
	}
	return buf
}

// DecodePacket parses a packet produced by EncodePacket.
func DecodePacket(data []byte) (Packet, error) {
	var hdr struct {
		Seq       uint32
		Timestamp int64
		Amplitude float32
		Count     uint16
	}
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return Packet{}, fmt.Errorf("%w: %v", errShortPacket, err)
	}

	bands := make([]float32, hdr.Count)
	if err := binary.Read(r, binary.BigEndian, bands); err != nil {
		return Packet{}, fmt.Errorf("%w: want %d bands: %v", errShortPacket, hdr.Count, err)
	}

	return Packet{
		Seq:       hdr.Seq,
		Timestamp: time.Unix(0, hdr.Timestamp),
		Amplitude: hdr.Amplitude,
		Bands:     bands,
	}, nil
}

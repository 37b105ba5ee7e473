// SPDX-License-Identifier: MIT
package udp

import (
	"time"

	"audioviz/internal/analysis"
	applog "audioviz/internal/log"
	"audioviz/internal/transport"
)

// Transport packs frames into the binary packet format and sends them over a
// Sender. Send is called from a single relay goroutine.
type Transport struct {
	sender *Sender
	seq    uint32
	packet []byte // Reused for every packet.
	now    func() time.Time
}

// NewTransport dials targetAddress.
func NewTransport(targetAddress string) (*Transport, error) {
	sender, err := NewSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return &Transport{
		sender: sender,
		packet: make([]byte, 0, PacketSize),
		now:    time.Now,
	}, nil
}

// Send encodes and transmits f.
func (t *Transport) Send(f *analysis.Frame) error {
	t.seq++
	t.packet = EncodePacket(t.packet[:0], t.seq, t.now(), f)

	if err := t.sender.Send(t.packet); err != nil {
		return err
	}
	applog.Debugf("udp: sent packet %d (%d bytes)", t.seq, len(t.packet))
	return nil
}

// Close closes the connection.
func (t *Transport) Close() error {
	return t.sender.Close()
}

var _ transport.Transport = (*Transport)(nil)

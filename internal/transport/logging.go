// SPDX-License-Identifier: MIT
package transport

import (
	"audioviz/internal/analysis"
	applog "audioviz/internal/log"
)

// LoggingTransport implements the Transport interface by logging a summary of
// each frame at debug level. Headless runs use it to show that analysis is alive.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("transport: using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the frame's amplitude and loudest band.
func (lt *LoggingTransport) Send(f *analysis.Frame) error {
	if !applog.Enabled(applog.LevelDebug) {
		return nil
	}
	band, level := f.Peak()
	applog.Debugf("frame %d: amplitude %.3f, peak band %d (%.2f)", f.Seq, f.Amplitude, band, level)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)

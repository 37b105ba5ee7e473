// SPDX-License-Identifier: MIT
package analysis

// Processor is implemented by components that consume mono sample buffers.
type Processor interface {
	// Process analyzes one buffer. Implementations are called from the
	// real-time audio callback and must not block, allocate or log.
	Process(samples []float32)
}

// FramePublisher receives finished frames from a Processor.
type FramePublisher interface {
	// Publish makes f visible to readers. It is called on the audio thread.
	Publish(f *Frame)
}

// FrameSource is the read side shared by every consumer of analysis results.
type FrameSource interface {
	// Latest returns a copy of the most recently published frame.
	Latest() Frame
}

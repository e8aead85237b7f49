package audio

import "sync"

// FrameBuffer accumulates captured PCM frames up to a fixed byte capacity.
// One writer appends while capture runs; DrainAndClear hands the whole
// capture to the transcriber as a single snapshot.
type FrameBuffer struct {
	mu       sync.Mutex
	data     []byte
	capacity int
	dropped  int
}

func NewFrameBuffer(capacity int) *FrameBuffer {
	if capacity <= 0 {
		capacity = 1 << 20
	}
	return &FrameBuffer{capacity: capacity}
}

// Append copies frame into the buffer. Bytes past capacity are dropped and
// counted; the return value is how many bytes were kept.
func (b *FrameBuffer) Append(frame []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	room := b.capacity - len(b.data)
	if room <= 0 {
		b.dropped += len(frame)
		return 0
	}
	kept := frame
	if len(kept) > room {
		kept = kept[:room]
		b.dropped += len(frame) - room
	}
	b.data = append(b.data, kept...)
	return len(kept)
}

// DrainAndClear returns everything captured so far and resets the buffer.
func (b *FrameBuffer) DrainAndClear() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := b.data
	b.data = nil
	b.dropped = 0
	return snapshot
}

func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Dropped reports how many bytes were discarded since the last drain.
func (b *FrameBuffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// BytesPerSecond is the byte rate of signed 16-bit PCM.
func BytesPerSecond(sampleRate int, channels int) int {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if channels <= 0 {
		channels = 1
	}
	return sampleRate * channels * 2
}

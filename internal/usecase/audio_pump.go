package usecase

import (
	"errors"
	"fmt"
	"io"
	"os"

	"clinicchat/internal/audio"
	"clinicchat/internal/domain"
	"clinicchat/internal/ports"
)

// pumpAudioFrames copies capture output into buffer until the capture ends.
func pumpAudioFrames(
	source ports.AudioSession,
	buffer *audio.FrameBuffer,
	chunkSize int,
	events ports.EventSink,
	done chan struct{},
) {
	defer close(done)

	if chunkSize < 256 {
		chunkSize = 4096
	}

	frame := make([]byte, chunkSize)
	for {
		n, err := source.Read(frame)
		if n > 0 {
			buffer.Append(frame[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				events.SessionError(domain.ErrorCodeAudioCapture, fmt.Sprintf("audio capture error: %v", err))
			}
			return
		}
	}
}

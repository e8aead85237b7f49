package usecase

import (
	"sync"

	"clinicchat/internal/audio"
	"clinicchat/internal/domain"
	"clinicchat/internal/ports"
)

type activeRecording struct {
	cancel func()
	audio  ports.AudioSession
	buffer *audio.FrameBuffer

	stateMu sync.Mutex
	state   domain.VoiceState

	pumpDone chan struct{}
}

func (r *activeRecording) setState(state domain.VoiceState) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.state = state
}

func (r *activeRecording) getState() domain.VoiceState {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.state
}

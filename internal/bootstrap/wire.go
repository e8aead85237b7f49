package bootstrap

import (
	"time"

	"clinicchat/internal/audio"
	"clinicchat/internal/config"
	"clinicchat/internal/domain"
	"clinicchat/internal/gateway"
	"clinicchat/internal/ports"
	"clinicchat/internal/providers/deepgram"
	"clinicchat/internal/providers/whisper"
	"clinicchat/internal/rules"
	"clinicchat/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Client  *usecase.SessionClient
	Voice   *usecase.VoiceController
	Session *domain.Session
	Config  config.Config
}

// Build loads configuration and wires all dependencies for eventSink.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	return BuildWithConfig(cfg, eventSink)
}

// BuildWithConfig wires dependencies from an already resolved configuration.
func BuildWithConfig(cfg config.Config, eventSink ports.EventSink) (Services, error) {
	gw, err := gateway.NewHTTPGateway(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: cfg.Gateway.Timeout,
	})
	if err != nil {
		return Services{}, err
	}

	rulesEngine, err := rules.NewEngine(cfg.Rules.Path, cfg.Rules.IterationLimit)
	if err != nil {
		return Services{}, err
	}

	transcriber := newTranscriber(cfg)

	client := usecase.NewSessionClient(gw, usecase.ClientConfig{AutoSend: cfg.Session.AutoSend})
	voice := usecase.NewVoiceController(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		transcriber,
		rulesEngine,
		client,
		eventSink,
		usecase.VoiceConfig{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			ChunkSize:      cfg.Audio.ChunkSize,
			MaxBufferBytes: maxBufferBytes(cfg.Audio),
		},
	)

	return Services{
		Client:  client,
		Voice:   voice,
		Session: domain.NewSession(cfg.Session.DefaultUserID),
		Config:  cfg,
	}, nil
}

func newTranscriber(cfg config.Config) ports.Transcriber {
	if cfg.Speech.Transcriber == config.TranscriberWhisper {
		return whisper.NewTranscriber(whisper.Config{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.OpenAI.Model,
			Language:   cfg.OpenAI.Language,
			SampleRate: cfg.Audio.SampleRate,
			Channels:   cfg.Audio.Channels,
		})
	}
	return deepgram.NewTranscriber(deepgram.Config{
		APIKey:       cfg.Deepgram.APIKey,
		APIBaseURL:   cfg.Deepgram.APIBaseURL,
		Model:        cfg.Deepgram.Model,
		Language:     cfg.Deepgram.Language,
		SmartFormat:  cfg.Deepgram.SmartFormat,
		SampleRate:   cfg.Audio.SampleRate,
		Channels:     cfg.Audio.Channels,
		CloseTimeout: cfg.Deepgram.CloseTimeout,
	})
}

func maxBufferBytes(cfg config.AudioConfig) int {
	seconds := int(cfg.MaxRecordingTime / time.Second)
	if seconds <= 0 {
		seconds = 120
	}
	return seconds * audio.BytesPerSecond(cfg.SampleRate, cfg.Channels)
}

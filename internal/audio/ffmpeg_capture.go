package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"clinicchat/internal/ports"
)

const (
	startupProbe = 250 * time.Millisecond
	stopTimeout  = 1200 * time.Millisecond
)

// FFMPEGCapture records raw s16le microphone audio through an ffmpeg child process.
type FFMPEGCapture struct {
	command string
}

func NewFFMPEGCapture(command string) *FFMPEGCapture {
	if strings.TrimSpace(command) == "" {
		command = "ffmpeg"
	}
	return &FFMPEGCapture{command: command}
}

func withAudioDefaults(cfg ports.AudioConfig) ports.AudioConfig {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}
	return cfg
}

func ffmpegArgs(cfg ports.AudioConfig) []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}
}

func (c *FFMPEGCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	cfg = withAudioDefaults(cfg)

	cmd := exec.CommandContext(ctx, c.command, ffmpegArgs(cfg)...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open recorder output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start recorder %q: %w", c.command, err)
	}

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
		close(exited)
	}()

	// A recorder that dies straight away (bad device, missing input format)
	// never produces audio; surface that at Start rather than at Stop.
	select {
	case err := <-exited:
		detail := strings.TrimSpace(stderr.String())
		if err != nil {
			return nil, fmt.Errorf("recorder exited before capture started: %w: %s", err, detail)
		}
		return nil, errors.New("recorder exited before capture started")
	case <-time.After(startupProbe):
	}

	log.Debug().
		Str("command", c.command).
		Str("device", cfg.InputDevice).
		Int("sample_rate", cfg.SampleRate).
		Msg("audio capture started")

	return &ffmpegSession{stdout: stdout, stderr: stderr, process: cmd.Process, exited: exited}, nil
}

type ffmpegSession struct {
	stdout  io.ReadCloser
	stderr  *bytes.Buffer
	process *os.Process
	exited  <-chan error

	once    sync.Once
	stopErr error
}

func (s *ffmpegSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *ffmpegSession) Close() error {
	return s.Stop()
}

// Stop interrupts the recorder, escalating to kill if it does not exit in time.
func (s *ffmpegSession) Stop() error {
	s.once.Do(func() {
		s.stopErr = s.terminate()

		if err := s.stdout.Close(); err != nil && !errors.Is(err, os.ErrClosed) && s.stopErr == nil {
			s.stopErr = err
		}
		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, strings.TrimSpace(s.stderr.String()))
		}
	})
	return s.stopErr
}

func (s *ffmpegSession) terminate() error {
	if s.process != nil {
		_ = s.process.Signal(os.Interrupt)
	}

	select {
	case err, ok := <-s.exited:
		if !ok {
			return nil
		}
		return ignoreExitStatus(err)
	case <-time.After(stopTimeout):
	}

	log.Warn().Msg("recorder ignored interrupt; killing")
	if s.process != nil {
		_ = s.process.Kill()
	}
	err, ok := <-s.exited
	if !ok {
		return nil
	}
	return ignoreExitStatus(err)
}

// ignoreExitStatus treats a non-zero exit after interrupt as a clean stop.
func ignoreExitStatus(err error) error {
	var exitErr *exec.ExitError
	if err == nil || errors.As(err, &exitErr) {
		return nil
	}
	return err
}

package player

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Sink is a playback device for a single decoded PCM stream.
type Sink interface {
	Play()
	Pause()
	SetVolume(v float64)
	Seek(d time.Duration) bool
	Position() time.Duration
	Duration() time.Duration
	Playing() bool
	Close() error
}

// SinkFactory creates a sink for interleaved 16-bit little-endian PCM.
type SinkFactory func(pcm []byte, sampleRate, channels int) (Sink, error)

// The audio device context is process-wide and created once with the
// format of the first stream. Later streams must match it.
var (
	otoOnce     sync.Once
	otoCtx      *oto.Context
	otoRate     int
	otoChannels int
	otoErr      error
)

// NewOtoSink creates a sink backed by the system audio device.
func NewOtoSink(pcm []byte, sampleRate, channels int) (Sink, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("player: couldn't create audio context: %w", err)
			return
		}
		<-ready
		otoCtx = ctx
		otoRate = sampleRate
		otoChannels = channels
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if sampleRate != otoRate || channels != otoChannels {
		return nil, fmt.Errorf("player: stream format %d Hz %d ch doesn't match device %d Hz %d ch",
			sampleRate, channels, otoRate, otoChannels)
	}

	frame := channels * 2
	samples := len(pcm) / frame
	duration := time.Duration(samples) * time.Second / time.Duration(sampleRate)
	s := &otoSink{
		pcm:      pcm,
		rate:     sampleRate,
		channels: channels,
		duration: duration,
	}
	s.player = otoCtx.NewPlayer(bytes.NewReader(pcm))
	return s, nil
}

type otoSink struct {
	pcm      []byte
	rate     int
	channels int
	duration time.Duration
	player   *oto.Player

	mu         sync.Mutex
	playing    bool
	startTime  time.Time
	pausedAt   time.Duration
	totalPause time.Duration
}

func (s *otoSink) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		return
	}
	if s.startTime.IsZero() {
		s.startTime = time.Now()
	} else {
		// Resuming: everything since startTime beyond played time was pause.
		s.totalPause = time.Since(s.startTime) - s.pausedAt
	}
	s.playing = true
	s.player.Play()
}

func (s *otoSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return
	}
	s.pausedAt = s.position()
	s.playing = false
	s.player.Pause()
}

func (s *otoSink) SetVolume(v float64) {
	s.player.SetVolume(v)
}

func (s *otoSink) Seek(d time.Duration) bool {
	if d < 0 || d > s.duration {
		return false
	}
	frame := int64(s.channels * 2)
	offset := int64(d.Seconds()*float64(s.rate)) * frame
	if _, err := s.player.Seek(offset, io.SeekStart); err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		s.startTime = time.Now().Add(-d)
		s.totalPause = 0
	} else {
		s.pausedAt = d
	}
	return true
}

func (s *otoSink) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position()
}

func (s *otoSink) position() time.Duration {
	if !s.playing {
		return s.pausedAt
	}
	elapsed := time.Since(s.startTime) - s.totalPause
	if elapsed > s.duration {
		elapsed = s.duration
	}
	return elapsed
}

func (s *otoSink) Duration() time.Duration {
	return s.duration
}

func (s *otoSink) Playing() bool {
	return s.player.IsPlaying()
}

func (s *otoSink) Close() error {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
	return s.player.Close()
}

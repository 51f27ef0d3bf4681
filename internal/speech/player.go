package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// AudioSink starts playback of synthesized audio and returns a handle
// that completes when the audio has finished playing.
type AudioSink interface {
	Start(audio []byte) (domain.Playback, error)
}

// Compile-time interface check.
var _ AudioSink = (*Player)(nil)

// Player plays 24kHz mono 16-bit audio through the system output via oto.
// Only one oto context may exist per process, so create one Player and
// share it.
type Player struct {
	ctx *oto.Context
	log *logger.Logger

	mu     sync.Mutex
	active *oto.Player
}

// NewPlayer initializes the system audio context. Returns an error if
// the audio device is unavailable.
func NewPlayer(log *logger.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	log.Debug("audio player initialized (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return &Player{ctx: ctx, log: log}, nil
}

// Start begins playing WAV or raw PCM audio and returns immediately.
// Anything still playing is cut off first. The handle completes once oto
// reports the player drained, which is checked every 10ms.
func (p *Player) Start(audio []byte) (domain.Playback, error) {
	pcm, err := decodeAudio(audio)
	if err != nil {
		return nil, err
	}

	player := p.ctx.NewPlayer(bytes.NewReader(pcm))

	p.mu.Lock()
	if p.active != nil {
		p.active.Pause()
	}
	p.active = player
	p.mu.Unlock()

	h := newHandle(func() {
		player.Pause()
		p.log.Debug("audio player: interrupted")
	})

	player.Play()
	p.log.Debug("audio player: playing %d bytes of PCM", len(pcm))

	go func() {
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		p.mu.Lock()
		if p.active == player {
			p.active = nil
		}
		p.mu.Unlock()
		h.end(player.Close())
	}()
	return h, nil
}

// decodeAudio returns the PCM payload of a WAV file, or audio unchanged
// when it carries no RIFF header (providers asked for raw PCM).
func decodeAudio(audio []byte) ([]byte, error) {
	if len(audio) == 0 {
		return nil, errors.New("empty audio")
	}
	if len(audio) >= 4 && string(audio[:4]) == "RIFF" {
		return extractPCM(audio)
	}
	// 16-bit samples; drop a dangling byte.
	return audio[:len(audio)&^1], nil
}

// extractPCM walks the RIFF chunks and returns the "data" chunk.
func extractPCM(wav []byte) ([]byte, error) {
	if len(wav) < 44 {
		return nil, errors.New("wav data too short")
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, errors.New("not a valid WAV file")
	}

	pos := 12
	for pos+8 <= len(wav) {
		id := string(wav[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		if id == "data" {
			start := pos + 8
			end := min(start+size, len(wav))
			return wav[start:end], nil
		}
		pos += 8 + size
		if size%2 != 0 {
			pos++ // chunks are word-aligned
		}
	}
	return nil, errors.New("data chunk not found in WAV")
}

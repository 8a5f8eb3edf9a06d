package outputs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zenibako/xq-golang/volume"
	"github.com/zenibako/xq-golang/xq"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// DefaultSampleRate is used for the shared audio context.
const DefaultSampleRate = 44100

var (
	audioContextOnce sync.Once
	audioContext     *audio.Context
)

// sharedAudioContext returns the process-wide ebiten audio context. Ebiten
// allows only one, so an existing context is reused.
func sharedAudioContext(sampleRate int) *audio.Context {
	audioContextOnce.Do(func() {
		if ctx := audio.CurrentContext(); ctx != nil {
			audioContext = ctx
			return
		}
		audioContext = audio.NewContext(sampleRate)
	})
	return audioContext
}

// EbitenOutput plays a decoded WAV clip through ebiten's audio player.
type EbitenOutput struct {
	ctx    *audio.Context
	clip   *xq.Clip
	pcm    []byte // Decoded 16-bit stereo at the context's sample rate
	player *audio.Player
	volume float64 // As set; may exceed unity
	loop   bool
}

// newClipless creates an output for a target that declares no clip.
// Cues aimed at it fail with xq.ErrMissingClip.
func newClipless() *EbitenOutput {
	return &EbitenOutput{volume: 1}
}

// playerVolume limits v to the [0,1] range ebiten's player accepts.
func playerVolume(v float64) float64 {
	return volume.Clamp(v, 0, 1)
}

// LoadEbitenOutput decodes a WAV file into memory.
func LoadEbitenOutput(path string) (*EbitenOutput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clip: %w", err)
	}
	defer f.Close()

	clip := &xq.Clip{
		Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Source: path,
	}
	return NewEbitenOutput(f, clip)
}

// NewEbitenOutput decodes WAV data from src.
func NewEbitenOutput(src io.Reader, clip *xq.Clip) (*EbitenOutput, error) {
	ctx := sharedAudioContext(DefaultSampleRate)

	stream, err := wav.DecodeWithSampleRate(ctx.SampleRate(), src)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", clip.Name, err)
	}
	pcm, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", clip.Name, err)
	}

	log.Debug("Loaded clip", "clip", clip.Name, "bytes", len(pcm))
	return &EbitenOutput{
		ctx:    ctx,
		clip:   clip,
		pcm:    pcm,
		volume: 1,
	}, nil
}

func (o *EbitenOutput) Clip() *xq.Clip  { return o.clip }
func (o *EbitenOutput) Volume() float64 { return o.volume }

func (o *EbitenOutput) IsPlaying() bool {
	return o.player != nil && o.player.IsPlaying()
}

func (o *EbitenOutput) SetVolume(v float64) {
	o.volume = v
	if o.player != nil {
		o.player.SetVolume(playerVolume(v))
	}
}

// SetLoop takes effect on the next Play.
func (o *EbitenOutput) SetLoop(loop bool) {
	o.loop = loop
}

// Play starts the clip from the beginning on a fresh player.
func (o *EbitenOutput) Play() {
	o.release()
	if o.clip == nil || o.ctx == nil {
		log.Warn("Play ignored; no clip loaded")
		return
	}

	var src io.Reader = bytes.NewReader(o.pcm)
	if o.loop {
		src = audio.NewInfiniteLoop(bytes.NewReader(o.pcm), int64(len(o.pcm)))
	}
	player, err := o.ctx.NewPlayer(src)
	if err != nil {
		log.Errorf("Failed to create player for %s: %v", o.clip.Name, err)
		return
	}
	player.SetVolume(playerVolume(o.volume))
	player.Play()
	o.player = player
}

func (o *EbitenOutput) Pause() {
	if o.player != nil {
		o.player.Pause()
	}
}

func (o *EbitenOutput) Resume() {
	if o.player == nil {
		o.Play()
		return
	}
	o.player.Play()
}

func (o *EbitenOutput) Stop() {
	o.release()
}

func (o *EbitenOutput) release() {
	if o.player == nil {
		return
	}
	o.player.Pause()
	if err := o.player.Close(); err != nil {
		log.Warnf("Failed to close player for %s: %v", o.clip.Name, err)
	}
	o.player = nil
}

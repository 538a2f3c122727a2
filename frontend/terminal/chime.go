package terminal

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	chimeRate     = beep.SampleRate(44100)
	chimeDuration = 60 * time.Millisecond
	foundFreq     = 880.0
	notFoundFreq  = 220.0
)

// Chime signals that a solve finished.
type Chime interface {
	Solved(found bool)
}

type silentChime struct{}

func (silentChime) Solved(bool) {}

// BeepChime plays a short tone through the default audio device: high when a
// path was found, low otherwise.
type BeepChime struct{}

// NewBeepChime opens the speaker. It fails when no audio device is available.
func NewBeepChime() (*BeepChime, error) {
	if err := speaker.Init(chimeRate, chimeRate.N(time.Second/10)); err != nil {
		return nil, err
	}
	return &BeepChime{}, nil
}

func (c *BeepChime) Solved(found bool) {
	tone, err := chimeTone(found)
	if err != nil {
		return
	}
	speaker.Play(tone)
}

// Close releases the audio device.
func (c *BeepChime) Close() {
	speaker.Close()
}

func chimeTone(found bool) (beep.Streamer, error) {
	freq := notFoundFreq
	if found {
		freq = foundFreq
	}
	sine, err := generators.SineTone(chimeRate, freq)
	if err != nil {
		return nil, err
	}
	return beep.Take(chimeRate.N(chimeDuration), sine), nil
}

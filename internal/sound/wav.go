package sound

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

// ToneConfig describes the fallback beep.
type ToneConfig struct {
	FrequencyHz float64       `yaml:"frequency_hz"`
	Length      time.Duration `yaml:"length"`
	Gain        float64       `yaml:"gain"`
	Interval    time.Duration `yaml:"interval"`
	SampleRate  int           `yaml:"sample_rate"`
}

// DefaultToneConfig is an 800 Hz square wave, half a second long at 0.3
// gain, once per second.
func DefaultToneConfig() ToneConfig {
	return ToneConfig{
		FrequencyHz: 800,
		Length:      500 * time.Millisecond,
		Gain:        0.3,
		Interval:    time.Second,
		SampleRate:  44100,
	}
}

// withDefaults fills zero fields from DefaultToneConfig.
func (c ToneConfig) withDefaults() ToneConfig {
	d := DefaultToneConfig()
	if c.FrequencyHz <= 0 {
		c.FrequencyHz = d.FrequencyHz
	}
	if c.Length <= 0 {
		c.Length = d.Length
	}
	if c.Gain <= 0 || c.Gain > 1 {
		c.Gain = d.Gain
	}
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	return c
}

// SquareWave returns mono 16-bit samples of a square wave.
func SquareWave(cfg ToneConfig) []int16 {
	cfg = cfg.withDefaults()
	n := int(float64(cfg.SampleRate) * cfg.Length.Seconds())
	amp := cfg.Gain * math.MaxInt16
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(cfg.SampleRate)
		if math.Sin(2*math.Pi*cfg.FrequencyHz*t) >= 0 {
			samples[i] = int16(amp)
		} else {
			samples[i] = int16(-amp)
		}
	}
	return samples
}

// EncodeWAV wraps mono 16-bit PCM samples in a RIFF/WAVE container.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataLen := len(samples) * 2
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(44 + dataLen)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

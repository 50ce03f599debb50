package sound

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reveille/internal/alarm"
	"github.com/roach88/reveille/internal/clock"
	"github.com/roach88/reveille/internal/testutil"
)

var start = time.Date(2026, 1, 15, 7, 0, 0, 0, time.Local)

func newResolver(sink Sink, clk clock.Clock) *Resolver {
	return NewResolver(sink, clk, WithLogger(testutil.DiscardLogger()))
}

func TestResolve_PicksClipOrTone(t *testing.T) {
	r := newResolver(&testutil.RecordingSink{}, clock.NewManual(start))

	assert.Equal(t, KindTone, r.Resolve(alarm.Alarm{}).Kind())
	assert.Equal(t, KindTone, r.Resolve(alarm.Alarm{SoundClip: []byte{}}).Kind())
	assert.Equal(t, KindClip, r.Resolve(alarm.Alarm{SoundClip: []byte{1}}).Kind())
}

func TestToneSource_BeepsOncePerInterval(t *testing.T) {
	sink := &testutil.RecordingSink{}
	clk := clock.NewManual(start)
	src := newResolver(sink, clk).Resolve(alarm.Alarm{})

	require.NoError(t, src.Start())
	require.Eventually(t, func() bool { return sink.Plays() == 1 }, time.Second, time.Millisecond)

	clk.Advance(3 * time.Second)
	require.Eventually(t, func() bool { return sink.Plays() == 4 }, time.Second, time.Millisecond)

	src.Stop()
	assert.Equal(t, 0, clk.Pending(), "stop must cancel the next beep")

	clk.Advance(10 * time.Second)
	assert.Equal(t, 4, sink.Plays(), "no beep after stop")
}

func TestToneSource_StopIsIdempotent(t *testing.T) {
	clk := clock.NewManual(start)
	src := newResolver(&testutil.RecordingSink{}, clk).Resolve(alarm.Alarm{})

	src.Stop() // never started
	src.Stop()
	require.NoError(t, src.Start(), "start after stop is a no-op")
	assert.Equal(t, 0, clk.Pending())
}

func TestToneSource_StopWaitsForPlayback(t *testing.T) {
	sink := &testutil.RecordingSink{Block: true}
	clk := clock.NewManual(start)
	src := newResolver(sink, clk).Resolve(alarm.Alarm{})

	require.NoError(t, src.Start())
	require.Eventually(t, func() bool { return sink.Active() == 1 }, time.Second, time.Millisecond)

	src.Stop()
	assert.Equal(t, 0, sink.Active())
}

func TestClipSource_LoopsUntilStopped(t *testing.T) {
	sink := &testutil.RecordingSink{}
	clk := clock.NewManual(start)
	clip := []byte("voice")
	src := newResolver(sink, clk).Resolve(alarm.Alarm{SoundClip: clip})

	require.NoError(t, src.Start())
	require.Eventually(t, func() bool { return sink.Plays() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, clip, sink.Last())

	// Each gap elapsed lets the loop play again.
	for i := 2; i <= 3; i++ {
		require.Eventually(t, func() bool { return clk.Pending() == 1 }, time.Second, time.Millisecond)
		clk.Advance(DefaultClipGap)
		want := i
		require.Eventually(t, func() bool { return sink.Plays() == want }, time.Second, time.Millisecond)
	}

	src.Stop()
	src.Stop()
	assert.Equal(t, 0, sink.Active())
	assert.Equal(t, 0, clk.Pending())
}

func TestClipSource_StopInterruptsPlayback(t *testing.T) {
	sink := &testutil.RecordingSink{Block: true}
	src := newResolver(sink, clock.NewManual(start)).Resolve(alarm.Alarm{SoundClip: []byte{1}})

	require.NoError(t, src.Start())
	require.Eventually(t, func() bool { return sink.Active() == 1 }, time.Second, time.Millisecond)

	src.Stop()
	assert.Equal(t, 0, sink.Active())
}

func TestClipSource_PlayErrorEndsLoop(t *testing.T) {
	sink := &testutil.RecordingSink{Err: assert.AnError}
	clk := clock.NewManual(start)
	src := newResolver(sink, clk).Resolve(alarm.Alarm{SoundClip: []byte{1}})

	require.NoError(t, src.Start())
	require.Eventually(t, func() bool { return sink.Plays() == 1 && sink.Active() == 0 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, clk.Pending(), "no retry after a failed play")
	src.Stop()
}

func TestPreview(t *testing.T) {
	sink := &testutil.RecordingSink{}
	r := newResolver(sink, clock.NewManual(start))

	require.NoError(t, r.Preview(context.Background(), []byte("clip")))
	assert.Equal(t, []byte("clip"), sink.Last())

	err := r.Preview(context.Background(), nil)
	assert.True(t, alarm.IsValidation(err))
}

func TestBeepIsWAV(t *testing.T) {
	r := newResolver(Discard{Logger: testutil.DiscardLogger()}, clock.NewManual(start))
	wav := r.beep

	require.Greater(t, len(wav), 44)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint32(44100), binary.LittleEndian.Uint32(wav[24:28]))

	// 0.5 s of mono 16-bit at 44.1 kHz.
	assert.Equal(t, uint32(22050*2), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Len(t, wav, 44+22050*2)
}

func TestSquareWave(t *testing.T) {
	samples := SquareWave(ToneConfig{FrequencyHz: 800, Length: 10 * time.Millisecond, Gain: 0.3, SampleRate: 8000})
	require.Len(t, samples, 80)

	peak := int16(9830) // 0.3 of full scale
	for i, s := range samples {
		assert.True(t, s == peak || s == -peak, "sample %d = %d", i, s)
	}
	assert.Equal(t, peak, samples[0])
	assert.Equal(t, -peak, samples[6], "800 Hz at 8 kHz flips every 5 samples")
}

func TestToneConfigDefaults(t *testing.T) {
	got := ToneConfig{Gain: 2}.withDefaults()
	assert.Equal(t, DefaultToneConfig(), got)
}

package speech

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/voice-screener/internal/clock"
)

type fakeRecognizer struct {
	starts   int
	stops    int
	startErr error
}

func (f *fakeRecognizer) Start(lang string) error {
	f.starts++
	return f.startErr
}

func (f *fakeRecognizer) Stop() { f.stops++ }

type fakeSynth struct {
	spoken   []Utterance
	cancels  int
	pauses   int
	resumes  int
	speakErr error
}

func (f *fakeSynth) Speak(u Utterance) error {
	if f.speakErr != nil {
		return f.speakErr
	}
	f.spoken = append(f.spoken, u)
	return nil
}
func (f *fakeSynth) Cancel() { f.cancels++ }
func (f *fakeSynth) Pause()  { f.pauses++ }
func (f *fakeSynth) Resume() { f.resumes++ }

func scheduler(c *clock.Fake) Scheduler {
	return func(d time.Duration, f func()) clock.Timer { return c.AfterFunc(d, f) }
}

func newTestInput(rec *fakeRecognizer, c *clock.Fake) (*Input, *int, *int) {
	idle, failures := 0, 0
	in := NewInput(rec, scheduler(c), InputConfig{RestartDelay: 300 * time.Millisecond, MaxRestarts: 2},
		func() { idle++ }, func() { failures++ })
	return in, &idle, &failures
}

func TestInput_StartClearsBuffersAndRejectsDoubleStart(t *testing.T) {
	rec := &fakeRecognizer{}
	in, _, _ := newTestInput(rec, clock.NewFake(time.Now()))

	require.True(t, in.Start())
	in.HandleResult(0, []Result{{Transcript: "hello", IsFinal: true}})
	assert.Equal(t, "hello", in.Transcript())

	assert.False(t, in.Start())
	assert.Equal(t, 1, rec.starts)

	in.Stop()
	require.True(t, in.Start())
	assert.Equal(t, "", in.Transcript())
}

func TestInput_StopIsIdempotent(t *testing.T) {
	rec := &fakeRecognizer{}
	in, _, _ := newTestInput(rec, clock.NewFake(time.Now()))
	in.Start()
	in.Stop()
	in.Stop()
	assert.False(t, in.Active())
	assert.Equal(t, 1, rec.stops)
}

func TestInput_FirstFinalWinsInBatch(t *testing.T) {
	in, _, _ := newTestInput(&fakeRecognizer{}, clock.NewFake(time.Now()))
	in.Start()

	in.HandleResult(0, []Result{{Transcript: "my name", IsFinal: false}})
	assert.Equal(t, "my name", in.Transcript())

	in.HandleResult(0, []Result{
		{Transcript: "my name is Asha", IsFinal: true},
		{Transcript: "and I", IsFinal: false},
	})
	assert.Equal(t, "my name is Asha", in.Transcript())

	in.HandleResult(1, []Result{
		{Transcript: "ignored, before resume index", IsFinal: true},
		{Transcript: "Rao", IsFinal: false},
		{Transcript: "Rao thanks", IsFinal: false},
	})
	assert.Equal(t, "my name is Asha Rao thanks", in.Transcript())
}

func TestInput_ResultsIgnoredWhenInactive(t *testing.T) {
	in, _, _ := newTestInput(&fakeRecognizer{}, clock.NewFake(time.Now()))
	in.HandleResult(0, []Result{{Transcript: "late", IsFinal: true}})
	assert.Equal(t, "", in.Transcript())
}

func TestInput_EndRestartsAfterDebounce(t *testing.T) {
	rec := &fakeRecognizer{}
	c := clock.NewFake(time.Now())
	in, idle, failures := newTestInput(rec, c)
	in.Start()

	in.HandleEnd()
	assert.Equal(t, 1, rec.starts)
	c.Advance(299 * time.Millisecond)
	assert.Equal(t, 1, rec.starts)
	c.Advance(time.Millisecond)
	assert.Equal(t, 2, rec.starts)
	assert.True(t, in.Active())
	assert.Zero(t, *idle)
	assert.Zero(t, *failures)
}

func TestInput_RestartCancelledByStop(t *testing.T) {
	rec := &fakeRecognizer{}
	c := clock.NewFake(time.Now())
	in, _, _ := newTestInput(rec, c)
	in.Start()
	in.HandleEnd()
	in.Stop()
	c.Advance(time.Second)
	assert.Equal(t, 1, rec.starts)
	assert.Zero(t, c.Pending())
}

func TestInput_RestartSkippedWhenMicNoLongerAllows(t *testing.T) {
	rec := &fakeRecognizer{}
	c := clock.NewFake(time.Now())
	allow := true
	idle := 0
	in := NewInput(rec, scheduler(c), InputConfig{
		RestartDelay: 300 * time.Millisecond,
		Allow:        func() bool { return allow },
	}, func() { idle++ }, func() {})

	require.True(t, in.Start())
	in.HandleEnd()
	allow = false
	c.Advance(time.Second)

	assert.Equal(t, 1, rec.starts)
	assert.False(t, in.Active())
	assert.Zero(t, idle)

	assert.False(t, in.Start())
	assert.Equal(t, 1, rec.starts)
}

func TestInput_EndWhenNotListeningGoesIdle(t *testing.T) {
	in, idle, failures := newTestInput(&fakeRecognizer{}, clock.NewFake(time.Now()))
	in.HandleEnd()
	assert.Equal(t, 1, *idle)
	assert.Zero(t, *failures)
}

func TestInput_RepeatedEndsGiveUp(t *testing.T) {
	rec := &fakeRecognizer{}
	c := clock.NewFake(time.Now())
	in, idle, failures := newTestInput(rec, c)
	in.Start()

	for i := 0; i < 2; i++ {
		in.HandleEnd()
		c.Advance(time.Second)
	}
	in.HandleEnd()

	assert.False(t, in.Active())
	assert.Equal(t, 1, *idle)
	assert.Equal(t, 1, *failures)
}

func TestInput_ResultResetsRestartBudget(t *testing.T) {
	rec := &fakeRecognizer{}
	c := clock.NewFake(time.Now())
	in, _, failures := newTestInput(rec, c)
	in.Start()

	for i := 0; i < 5; i++ {
		in.HandleEnd()
		c.Advance(time.Second)
		in.HandleResult(0, []Result{{Transcript: fmt.Sprint(i)}})
	}
	assert.True(t, in.Active())
	assert.Zero(t, *failures)
}

func TestInput_ErrorRequestsRepeat(t *testing.T) {
	in, idle, failures := newTestInput(&fakeRecognizer{}, clock.NewFake(time.Now()))
	in.Start()
	in.HandleError(errors.New("network"))

	assert.False(t, in.Active())
	assert.Equal(t, 1, *idle)
	assert.Equal(t, 1, *failures)

	in.HandleError(errors.New("aborted"))
	assert.Equal(t, 1, *failures)
}

func TestInput_Unsupported(t *testing.T) {
	rec := &fakeRecognizer{startErr: ErrUnsupported}
	in, _, _ := newTestInput(rec, clock.NewFake(time.Now()))
	assert.False(t, in.Start())
	assert.False(t, in.Supported())
	assert.False(t, in.Start())
	assert.Equal(t, 1, rec.starts)
}

type outputHarness struct {
	out    *Output
	synth  *fakeSynth
	clock  *clock.Fake
	before int
	after  int
}

func newOutputHarness() *outputHarness {
	h := &outputHarness{synth: &fakeSynth{}, clock: clock.NewFake(time.Now())}
	h.out = NewOutput(h.synth, scheduler(h.clock), OutputConfig{WatchdogInterval: 5 * time.Second}, OutputHooks{
		Before: func() { h.before++ },
		After:  func() { h.after++ },
	})
	return h
}

func TestOutput_SpeakSanitisesAndUsesFixedDelivery(t *testing.T) {
	h := newOutputHarness()
	h.out.UseVoices([]Voice{{Name: "Google UK English Male", Lang: "en-GB"}, {Name: "Google UK English Female", Lang: "en-GB"}})

	id := h.out.Speak("Welcome! 👋\nLet's begin")
	require.NotEmpty(t, id)
	require.Len(t, h.synth.spoken, 1)

	u := h.synth.spoken[0]
	assert.Equal(t, "Welcome! Let's begin", u.Text)
	assert.Equal(t, "Google UK English Female", u.Voice.Name)
	assert.Equal(t, DefaultRate, u.Rate)
	assert.Equal(t, DefaultPitch, u.Pitch)
	assert.Equal(t, DefaultVolume, u.Volume)
	assert.Equal(t, 1, h.before)
	assert.Zero(t, h.after)
	assert.True(t, h.out.Speaking())
}

func TestOutput_NewSpeakInterrupts(t *testing.T) {
	h := newOutputHarness()
	first := h.out.Speak("one")
	second := h.out.Speak("two")

	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, h.synth.cancels)
	assert.Equal(t, second, h.out.Current())

	h.out.HandleEnd(first)
	assert.Zero(t, h.after, "stale end must be ignored")
	h.out.HandleEnd(second)
	assert.Equal(t, 1, h.after)
	assert.False(t, h.out.Speaking())
}

func TestOutput_WatchdogNudgesWhileSpeaking(t *testing.T) {
	h := newOutputHarness()
	id := h.out.Speak("a very long answer")

	h.clock.Advance(12 * time.Second)
	assert.Equal(t, 2, h.synth.pauses)
	assert.Equal(t, 2, h.synth.resumes)

	h.out.HandleEnd(id)
	h.clock.Advance(time.Minute)
	assert.Equal(t, 2, h.synth.pauses)
	assert.Zero(t, h.clock.Pending())
}

func TestOutput_ErrorFinishesUtterance(t *testing.T) {
	h := newOutputHarness()
	id := h.out.Speak("hello")
	h.out.HandleError(id, errors.New("synthesis-failed"))
	assert.Equal(t, 1, h.after)
	assert.Zero(t, h.clock.Pending())
}

func TestOutput_FailedStartRevealsControls(t *testing.T) {
	h := newOutputHarness()
	h.synth.speakErr = ErrUnsupported
	assert.Empty(t, h.out.Speak("hello"))
	assert.Equal(t, 1, h.before)
	assert.Equal(t, 1, h.after)
}

func TestOutput_EmptyTextSpeaksNothing(t *testing.T) {
	h := newOutputHarness()
	assert.Empty(t, h.out.Speak("🎉✨"))
	assert.Empty(t, h.synth.spoken)
	assert.Equal(t, 1, h.after)
}

func TestSanitize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Hello 😀 there", "Hello there"},
		{"Line one\nLine two\n\n- bullet", "Line one. Line two. bullet"},
		{"Question?\nNext", "Question? Next"},
		{"  spaced\t\tout  ", "spaced out"},
		{"✅ Done", "Done"},
		{"🇬🇧 Flag", "Flag"},
		{"ｆｕｌｌｗｉｄｔｈ", "fullwidth"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Sanitize(tc.in), tc.in)
	}
}

func TestSelectVoice(t *testing.T) {
	t.Run("female regional english first", func(t *testing.T) {
		v := SelectVoice([]Voice{
			{Name: "Samantha", Lang: "en-US"},
			{Name: "Rishi", Lang: "en-IN"},
			{Name: "Veena", Lang: "en-IN"},
		})
		require.NotNil(t, v)
		assert.Equal(t, "Veena", v.Name)
	})

	t.Run("non male english fallback", func(t *testing.T) {
		v := SelectVoice([]Voice{
			{Name: "Daniel", Lang: "en-GB"},
			{Name: "Thomas", Lang: "fr-FR"},
			{Name: "Samantha", Lang: "en-US"},
		})
		require.NotNil(t, v)
		assert.Equal(t, "Samantha", v.Name)
	})

	t.Run("female is not male", func(t *testing.T) {
		assert.False(t, hasHint("Google UK English Female", maleNames))
		assert.True(t, hasHint("Google UK English Male", maleNames))
	})

	t.Run("platform default", func(t *testing.T) {
		assert.Nil(t, SelectVoice([]Voice{{Name: "Daniel", Lang: "en-GB"}, {Name: "Anna", Lang: "de-DE"}}))
		assert.Nil(t, SelectVoice(nil))
	})
}

package player

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/igolaizola/moodtune/pkg/mood"
	"github.com/igolaizola/moodtune/pkg/storage"
	"github.com/igolaizola/moodtune/pkg/synth"
)

type fakeSink struct {
	mu       sync.Mutex
	playing  bool
	closed   bool
	volume   float64
	position time.Duration
	duration time.Duration
}

func (s *fakeSink) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = true
}

func (s *fakeSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

func (s *fakeSink) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

func (s *fakeSink) Seek(d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < 0 || d > s.duration {
		return false
	}
	s.position = d
	return true
}

func (s *fakeSink) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *fakeSink) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *fakeSink) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.closed = true
	return nil
}

func (s *fakeSink) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = s.duration
	s.playing = false
}

type sinkRecorder struct {
	mu    sync.Mutex
	sinks []*fakeSink
}

func (r *sinkRecorder) factory(pcm []byte, sampleRate, channels int) (Sink, error) {
	frame := channels * 2
	samples := len(pcm) / frame
	s := &fakeSink{
		duration: time.Duration(samples) * time.Second / time.Duration(sampleRate),
	}
	r.mu.Lock()
	r.sinks = append(r.sinks, s)
	r.mu.Unlock()
	return s, nil
}

func (r *sinkRecorder) last() *fakeSink {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sinks) == 0 {
		return nil
	}
	return r.sinks[len(r.sinks)-1]
}

type memStore struct {
	mu      sync.Mutex
	records map[string]*storage.GeneratedMusic
}

func (s *memStore) GetMusic(ctx context.Context, userID, id string) (*storage.GeneratedMusic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.records[userID+"/"+id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return m, nil
}

func (s *memStore) SetMusic(ctx context.Context, m *storage.GeneratedMusic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = map[string]*storage.GeneratedMusic{}
	}
	s.records[m.UserID+"/"+m.ID] = m
	return nil
}

type memFiles struct {
	mu    sync.Mutex
	audio map[string][]byte
}

func (f *memFiles) GetAudio(ctx context.Context, path, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.audio[name]
	if !ok {
		return fmt.Errorf("missing %s", name)
	}
	return os.WriteFile(path, b, 0644)
}

func (f *memFiles) SetAudio(ctx context.Context, path, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if f.audio == nil {
		f.audio = map[string][]byte{}
	}
	f.audio[name] = b
	return nil
}

func testWAV(t *testing.T, d time.Duration) []byte {
	t.Helper()
	s := synth.New()
	return s.Synthesize(mood.Parameters{
		Tempo:    120,
		Key:      "C",
		Scale:    "major",
		Dynamics: 0.6,
		Mood:     "reflective",
	}, d)
}

func newTestController(t *testing.T, store *memStore, files *memFiles) (*Controller, *sinkRecorder) {
	t.Helper()
	rec := &sinkRecorder{}
	c := New(&Config{
		Store:   store,
		Files:   files,
		NewSink: rec.factory,
		Length:  time.Second,
	})
	return c, rec
}

func seedMusic(t *testing.T, store *memStore, files *memFiles, id string, b []byte) {
	t.Helper()
	ctx := context.Background()
	m := &storage.GeneratedMusic{
		ID:       id,
		UserID:   "u",
		AudioURL: id + ".wav",
		Tempo:    120,
		Key:      "C major",
		Mood:     "reflective",
	}
	if err := store.SetMusic(ctx, m); err != nil {
		t.Fatal(err)
	}
	if b != nil {
		if files.audio == nil {
			files.audio = map[string][]byte{}
		}
		files.audio[m.AudioURL] = b
	}
}

func TestPlayAndStop(t *testing.T) {
	store := &memStore{}
	files := &memFiles{}
	seedMusic(t, store, files, "m1", testWAV(t, time.Second))
	c, rec := newTestController(t, store, files)

	if !c.Play(context.Background(), "u", "m1") {
		t.Fatal("Play() = false; want true")
	}
	if got := c.State(); got != Playing {
		t.Errorf("State() = %s; want playing", got)
	}
	if !rec.last().Playing() {
		t.Error("sink is not playing")
	}

	if !c.Stop() {
		t.Error("Stop() = false; want true")
	}
	if got := c.State(); got != Idle {
		t.Errorf("State() = %s; want idle", got)
	}
	if !rec.last().closed {
		t.Error("sink was not closed on stop")
	}
}

func TestPlayStopsPreviousSession(t *testing.T) {
	store := &memStore{}
	files := &memFiles{}
	seedMusic(t, store, files, "m1", testWAV(t, time.Second))
	seedMusic(t, store, files, "m2", testWAV(t, time.Second))
	c, rec := newTestController(t, store, files)

	ctx := context.Background()
	if !c.Play(ctx, "u", "m1") {
		t.Fatal("Play(m1) = false; want true")
	}
	first := rec.last()
	if !c.Play(ctx, "u", "m2") {
		t.Fatal("Play(m2) = false; want true")
	}
	if !first.closed {
		t.Error("previous session was not closed")
	}
	if second := rec.last(); second == first || !second.Playing() {
		t.Error("new session is not the active one")
	}
}

func TestPauseResume(t *testing.T) {
	store := &memStore{}
	files := &memFiles{}
	seedMusic(t, store, files, "m1", testWAV(t, time.Second))
	c, rec := newTestController(t, store, files)

	// Pause and resume outside a session are no-ops.
	if c.Pause() {
		t.Error("Pause() without session = true; want false")
	}
	if c.Resume() {
		t.Error("Resume() without session = true; want false")
	}

	if !c.Play(context.Background(), "u", "m1") {
		t.Fatal("Play() = false; want true")
	}
	if !c.Pause() {
		t.Error("Pause() = false; want true")
	}
	if rec.last().Playing() {
		t.Error("sink still playing after pause")
	}
	// Pausing twice is a no-op.
	if c.Pause() {
		t.Error("Pause() while paused = true; want false")
	}
	if !c.Resume() {
		t.Error("Resume() = false; want true")
	}
	if !rec.last().Playing() {
		t.Error("sink not playing after resume")
	}
	// Resuming twice is a no-op.
	if c.Resume() {
		t.Error("Resume() while playing = true; want false")
	}
}

func TestSessionOpsWithoutSession(t *testing.T) {
	c, _ := newTestController(t, &memStore{}, &memFiles{})

	if c.Seek(time.Second) {
		t.Error("Seek() without session = true; want false")
	}
	if c.SetVolume(0.5) {
		t.Error("SetVolume() without session = true; want false")
	}
	if c.SetRepeat(true) {
		t.Error("SetRepeat() without session = true; want false")
	}
	// Stop is safe in any state.
	if !c.Stop() {
		t.Error("Stop() without session = false; want true")
	}
}

func TestVolumeAndSeek(t *testing.T) {
	store := &memStore{}
	files := &memFiles{}
	seedMusic(t, store, files, "m1", testWAV(t, time.Second))
	c, rec := newTestController(t, store, files)

	if !c.Play(context.Background(), "u", "m1") {
		t.Fatal("Play() = false; want true")
	}
	if !c.SetVolume(0.5) {
		t.Error("SetVolume(0.5) = false; want true")
	}
	if got := rec.last().volume; got != 0.5 {
		t.Errorf("sink volume = %f; want 0.5", got)
	}
	if c.SetVolume(1.5) {
		t.Error("SetVolume(1.5) = true; want false")
	}
	if !c.Seek(500 * time.Millisecond) {
		t.Error("Seek() = false; want true")
	}
	if got := c.Position(); got != 500*time.Millisecond {
		t.Errorf("Position() = %s; want 500ms", got)
	}
	if c.Seek(time.Hour) {
		t.Error("Seek() past end = true; want false")
	}
}

func TestPlayMissingRecord(t *testing.T) {
	c, _ := newTestController(t, &memStore{}, &memFiles{})
	if c.Play(context.Background(), "u", "missing") {
		t.Error("Play() = true; want false")
	}
	if got := c.State(); got != Idle {
		t.Errorf("State() = %s; want idle", got)
	}
}

func TestPlayRegeneratesMissingArtifact(t *testing.T) {
	store := &memStore{}
	files := &memFiles{}
	// Record exists but the artifact bytes are gone.
	seedMusic(t, store, files, "m1", nil)
	c, _ := newTestController(t, store, files)

	ctx := context.Background()
	if !c.Play(ctx, "u", "m1") {
		t.Fatal("Play() = false; want true")
	}
	// The repaired artifact is persisted and the record re-pointed.
	if len(files.audio["m1.wav"]) == 0 {
		t.Error("regenerated audio was not persisted")
	}
	m, err := store.GetMusic(ctx, "u", "m1")
	if err != nil {
		t.Fatal(err)
	}
	if m.AudioURL != "m1.wav" || m.Duration != 1 {
		t.Errorf("record = %q %f; want m1.wav 1", m.AudioURL, m.Duration)
	}
}

func TestPlayRegeneratesEmptyLocator(t *testing.T) {
	store := &memStore{}
	files := &memFiles{}
	ctx := context.Background()
	m := &storage.GeneratedMusic{ID: "m1", UserID: "u", Tempo: 150, Key: "D lydian", Mood: "joyful"}
	if err := store.SetMusic(ctx, m); err != nil {
		t.Fatal(err)
	}
	c, _ := newTestController(t, store, files)

	if !c.Play(ctx, "u", "m1") {
		t.Fatal("Play() = false; want true")
	}
	if len(files.audio["m1.wav"]) == 0 {
		t.Error("regenerated audio was not persisted")
	}
}

func TestPlayRegeneratesCorruptArtifact(t *testing.T) {
	store := &memStore{}
	files := &memFiles{}
	seedMusic(t, store, files, "m1", []byte("not audio at all"))
	c, _ := newTestController(t, store, files)

	if !c.Play(context.Background(), "u", "m1") {
		t.Fatal("Play() = false; want true")
	}
	if len(files.audio["m1.wav"]) == 0 {
		t.Error("regenerated audio was not persisted")
	}
}

func TestNaturalEndToIdle(t *testing.T) {
	store := &memStore{}
	files := &memFiles{}
	seedMusic(t, store, files, "m1", testWAV(t, time.Second))
	c, rec := newTestController(t, store, files)

	if !c.Play(context.Background(), "u", "m1") {
		t.Fatal("Play() = false; want true")
	}
	rec.last().finish()

	deadline := time.Now().Add(5 * time.Second)
	for c.State() != Idle {
		if time.Now().After(deadline) {
			t.Fatal("controller never returned to idle")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNaturalEndWithRepeat(t *testing.T) {
	store := &memStore{}
	files := &memFiles{}
	seedMusic(t, store, files, "m1", testWAV(t, time.Second))
	c, rec := newTestController(t, store, files)

	if !c.Play(context.Background(), "u", "m1") {
		t.Fatal("Play() = false; want true")
	}
	if !c.SetRepeat(true) {
		t.Fatal("SetRepeat() = false; want true")
	}
	sink := rec.last()
	sink.finish()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if sink.Position() == 0 && sink.Playing() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("track never repeated")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := c.State(); got != Playing {
		t.Errorf("State() = %s; want playing", got)
	}
	c.Stop()
}

func TestReconstructParams(t *testing.T) {
	m := &storage.GeneratedMusic{
		Tempo:       150,
		Key:         "D lydian",
		Instruments: "synth,bells",
		Mood:        "joyful",
	}
	p := reconstructParams(m)
	if p.Tempo != 150 || p.Key != "D" || p.Scale != "lydian" || p.Mood != "joyful" {
		t.Errorf("reconstructParams() = %+v", p)
	}
	if len(p.Instruments) != 2 || p.Instruments[0] != "synth" {
		t.Errorf("Instruments = %v; want [synth bells]", p.Instruments)
	}

	// Empty projection falls back to safe defaults.
	p = reconstructParams(&storage.GeneratedMusic{})
	if p.Tempo != 84 || p.Key != "C" || p.Scale != "major" || p.Mood != "reflective" {
		t.Errorf("reconstructParams(empty) = %+v", p)
	}
}

func TestDecodeWAV(t *testing.T) {
	b := testWAV(t, time.Second)
	pcm, rate, channels, err := decode(b)
	if err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	if rate != synth.SampleRate || channels != 2 {
		t.Errorf("rate = %d, channels = %d; want %d, 2", rate, channels, synth.SampleRate)
	}
	// Mono duplicated to stereo doubles the payload.
	if want := (len(b) - 44) * 2; len(pcm) != want {
		t.Errorf("pcm length = %d; want %d", len(pcm), want)
	}
}

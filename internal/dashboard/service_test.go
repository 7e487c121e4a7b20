package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/embano1/consult-insights/internal/artifact"
	"github.com/embano1/consult-insights/internal/poller"
	"github.com/embano1/consult-insights/internal/types"
)

const (
	videoKey = "videos/17-visit.mp4"

	transcriptJSON = `{"results": {
		"transcripts": [{"transcript": "Hello doctor. I feel better"}],
		"items": [
			{"start_time": "0.0", "end_time": "0.5", "type": "pronunciation", "speaker_label": "spk_0", "alternatives": [{"confidence": "0.99", "content": "Hello"}]},
			{"start_time": "0.5", "end_time": "1.0", "type": "pronunciation", "speaker_label": "spk_0", "alternatives": [{"confidence": "0.6", "content": "doctor"}]},
			{"type": "punctuation", "alternatives": [{"confidence": "0.0", "content": "."}]},
			{"start_time": "1.0", "end_time": "1.5", "type": "pronunciation", "speaker_label": "spk_1", "alternatives": [{"confidence": "0.9", "content": "I"}]},
			{"start_time": "1.5", "end_time": "2.0", "type": "pronunciation", "speaker_label": "spk_1", "alternatives": [{"confidence": "0.9", "content": "feel"}]},
			{"start_time": "2.0", "end_time": "3.0", "type": "pronunciation", "speaker_label": "spk_1", "alternatives": [{"confidence": "0.9", "content": "better"}]}
		]}}`
	analysisJSON = `{"Sentiment": "POSITIVE",
		"SentimentScore": {"Positive": 0.8, "Negative": 0.05, "Neutral": 0.1, "Mixed": 0.05},
		"Segments": [{"Text": "I feel better", "Sentiment": "POSITIVE", "SentimentScore": {"Positive": 0.9}, "StartTime": 1.0, "EndTime": 3.0}]}`
	summaryJSON = `{"summary": "- Patient improving\n- Continue medication"}`
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	errs    map[string]error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, errs: map[string]error{}}
}

func (m *memStore) put(key, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = []byte(body)
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[key]; err != nil {
		return false, err
	}
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, artifact.ErrNotFound
	}
	return b, nil
}

func (m *memStore) putAll() {
	m.put(artifact.Locate(videoKey, artifact.Transcript), transcriptJSON)
	m.put(artifact.Locate(videoKey, artifact.Analysis), analysisJSON)
	m.put(artifact.Locate(videoKey, artifact.Summary), summaryJSON)
}

type fakePublisher struct {
	mu    sync.Mutex
	kinds []artifact.Kind
}

func (f *fakePublisher) PublishReady(_ context.Context, _ string, kind artifact.Kind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
	return nil
}

type fakeGauge struct {
	mu       sync.Mutex
	cur, max int
}

func (g *fakeGauge) Inc() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cur++
	if g.cur > g.max {
		g.max = g.cur
	}
}

func (g *fakeGauge) Dec() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cur--
}

func fastPoll() types.PollConfig {
	return types.PollConfig{Interval: 5 * time.Millisecond, FailOnUnauthorized: true}
}

func TestWatchAllReady(t *testing.T) {
	store := newMemStore()
	store.putAll()
	pub := &fakePublisher{}
	gauge := &fakeGauge{}
	svc := New(store, Config{Poll: fastPoll(), Publisher: pub, Active: gauge})

	var mu sync.Mutex
	var notified []artifact.Kind
	r, err := svc.Watch(context.Background(), videoKey, nil, func(k artifact.Kind, _ *Report) {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, k)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Complete() {
		t.Fatalf("expected complete report, got %+v", r.Status)
	}
	if r.Transcript == nil || r.Analysis == nil || r.Summary == nil {
		t.Fatal("expected all artifacts")
	}
	if r.Metrics.Transcript == nil || r.Metrics.Transcript.WordCount != 5 {
		t.Errorf("unexpected transcript metrics %+v", r.Metrics.Transcript)
	}
	if r.Metrics.Sentiment == nil || r.Metrics.Sentiment.Overall != types.SentimentPositive {
		t.Errorf("unexpected sentiment metrics %+v", r.Metrics.Sentiment)
	}
	if len(notified) != 3 || len(pub.kinds) != 3 {
		t.Errorf("expected 3 notifications and events, got %v and %v", notified, pub.kinds)
	}
	if gauge.max != 1 || gauge.cur != 0 {
		t.Errorf("expected gauge to go up and back down, got max=%d cur=%d", gauge.max, gauge.cur)
	}
}

func TestWatchLateArtifact(t *testing.T) {
	store := newMemStore()
	store.put(artifact.Locate(videoKey, artifact.Transcript), transcriptJSON)
	svc := New(store, Config{Poll: fastPoll()})

	go func() {
		time.Sleep(30 * time.Millisecond)
		store.put(artifact.Locate(videoKey, artifact.Summary), summaryJSON)
	}()

	r, err := svc.Watch(context.Background(), videoKey, []artifact.Kind{artifact.Transcript, artifact.Summary}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Summary == nil || len(r.Summary.Points()) != 2 {
		t.Fatalf("unexpected summary %+v", r.Summary)
	}
	if st := r.Status["summary"]; st.State != poller.Ready.String() || st.Attempts < 2 {
		t.Errorf("expected summary ready after several polls, got %+v", st)
	}
	if r.Metrics.Sentiment != nil {
		t.Error("expected no sentiment metrics without analysis")
	}
}

func TestWatchUnauthorizedDoesNotAbortOthers(t *testing.T) {
	store := newMemStore()
	store.put(artifact.Locate(videoKey, artifact.Transcript), transcriptJSON)
	store.errs[artifact.Locate(videoKey, artifact.Analysis)] = fmt.Errorf("head: %w", artifact.ErrUnauthorized)
	svc := New(store, Config{Poll: fastPoll()})

	r, err := svc.Watch(context.Background(), videoKey, []artifact.Kind{artifact.Transcript, artifact.Analysis}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Transcript == nil {
		t.Error("expected transcript")
	}
	st := r.Status["analysis"]
	if st.State != poller.Failed.String() || st.Error == "" {
		t.Errorf("expected failed analysis, got %+v", st)
	}
	if r.Complete() {
		t.Error("expected incomplete report")
	}
}

func TestWatchRetriesUnauthorizedWhenConfigured(t *testing.T) {
	store := newMemStore()
	store.errs[artifact.Locate(videoKey, artifact.Analysis)] = artifact.ErrUnauthorized
	poll := fastPoll()
	poll.FailOnUnauthorized = false
	poll.MaxAttempts = 3
	svc := New(store, Config{Poll: poll})

	r, err := svc.Watch(context.Background(), videoKey, []artifact.Kind{artifact.Analysis}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := r.Status["analysis"]
	if st.State != poller.Failed.String() || st.Attempts != 3 {
		t.Errorf("expected exhaustion after 3 attempts, got %+v", st)
	}
}

func TestWatchContextDeadline(t *testing.T) {
	svc := New(newMemStore(), Config{Poll: fastPoll()})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	r, err := svc.Watch(ctx, videoKey, nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if r == nil || r.Complete() || r.Metrics.Transcript != nil {
		t.Fatalf("expected empty partial report, got %+v", r)
	}
	assertSettled(t, r)
}

func TestWatchDeadlineSettlesEveryKind(t *testing.T) {
	svc := New(newMemStore(), Config{Poll: fastPoll()})

	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 12*time.Millisecond)
		r, err := svc.Watch(ctx, videoKey, nil, nil)
		cancel()
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("run %d: expected deadline exceeded, got %v", i, err)
		}
		for kind, st := range r.Status {
			if st.State != poller.Stopped.String() {
				t.Fatalf("run %d: %s left in %s", i, kind, st.State)
			}
		}
	}
}

// assertSettled fails when any artifact status still reports an active poll.
func assertSettled(t *testing.T, r *Report) {
	t.Helper()
	if len(r.Status) != 3 {
		t.Fatalf("expected a status per artifact, got %+v", r.Status)
	}
	for kind, st := range r.Status {
		if st.State == poller.Polling.String() || st.State == poller.Idle.String() {
			t.Errorf("%s: expected settled state, got %s", kind, st.State)
		}
	}
}

func TestWatchUnsupportedKind(t *testing.T) {
	svc := New(newMemStore(), Config{Poll: fastPoll()})
	if _, err := svc.Watch(context.Background(), videoKey, []artifact.Kind{artifact.Kind(42)}, nil); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestFetchOnce(t *testing.T) {
	store := newMemStore()
	svc := New(store, Config{})

	snap, err := svc.FetchOnce(context.Background(), videoKey, artifact.Summary)
	if err != nil || snap.Outcome != artifact.NotReady {
		t.Fatalf("expected pending summary, got %+v, %v", snap, err)
	}

	store.put(artifact.Locate(videoKey, artifact.Summary), summaryJSON)
	snap, err = svc.FetchOnce(context.Background(), videoKey, artifact.Summary)
	if err != nil || snap.Outcome != artifact.Ready {
		t.Fatalf("expected ready summary, got %+v, %v", snap, err)
	}
	if _, ok := snap.Data.(types.Summary); !ok {
		t.Errorf("expected summary data, got %T", snap.Data)
	}

	store.put(artifact.Locate(videoKey, artifact.Analysis), `[]`)
	snap, _ = svc.FetchOnce(context.Background(), videoKey, artifact.Analysis)
	if snap.Outcome != artifact.Failed || snap.Err.Kind != artifact.Malformed {
		t.Errorf("expected malformed analysis, got %+v", snap)
	}
}

func TestInsightsOnce(t *testing.T) {
	store := newMemStore()
	store.put(artifact.Locate(videoKey, artifact.Transcript), transcriptJSON)
	svc := New(store, Config{})

	r, err := svc.Insights(context.Background(), videoKey, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Metrics.Transcript == nil || r.Metrics.Sentiment != nil {
		t.Errorf("expected only transcript metrics, got %+v", r.Metrics)
	}
	if got := len(r.Metrics.Transcript.LowConfidence); got != 1 {
		t.Errorf("expected 1 low confidence word, got %d", got)
	}
	if r.Status["analysis"].State != poller.Polling.String() {
		t.Errorf("expected analysis pending, got %+v", r.Status["analysis"])
	}
}

func TestInsightsWaitReturnsPartial(t *testing.T) {
	store := newMemStore()
	store.put(artifact.Locate(videoKey, artifact.Transcript), transcriptJSON)
	svc := New(store, Config{Poll: fastPoll()})

	r, err := svc.Insights(context.Background(), videoKey, 40*time.Millisecond)
	if err != nil {
		t.Fatalf("expected partial report without error, got %v", err)
	}
	if r.Transcript == nil || r.Complete() {
		t.Fatalf("expected partial report, got %+v", r.Status)
	}
	assertSettled(t, r)
	if st := r.Status[artifact.Transcript.String()]; st.State != poller.Ready.String() || st.Location != "transcript/17-visit.json" {
		t.Errorf("expected ready transcript, got %+v", st)
	}
}

func TestThresholdsFromConfig(t *testing.T) {
	th := ThresholdsFromConfig(types.ThresholdConfig{LowConfidence: 0.5})
	if th.LowConfidence != 0.5 || th.StrongSentiment != 0.7 {
		t.Errorf("unexpected thresholds %+v", th)
	}
}

func TestWatchLimit(t *testing.T) {
	svc := New(newMemStore(), Config{Poll: fastPoll(), MaxWatches: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	started := make(chan struct{})
	go func() {
		close(started)
		svc.Watch(ctx, videoKey, nil, nil)
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	wctx, wcancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer wcancel()
	r, err := svc.Watch(wctx, "videos/other.mp4", nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) || r != nil {
		t.Errorf("expected to wait for a slot and time out, got %v, %v", r, err)
	}
}

package live

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/timeutil"
)

type fakeStore struct {
	mu     sync.Mutex
	latest []models.Sample
	err    error
	calls  int
}

func (s *fakeStore) LatestPerVehicle(context.Context) ([]models.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.Sample, len(s.latest))
	copy(out, s.latest)
	return out, nil
}

func (s *fakeStore) set(samples ...models.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = samples
	s.err = nil
}

type recordingBroadcaster struct {
	mu      sync.Mutex
	batches [][]models.Sample
}

func (b *recordingBroadcaster) Broadcast(event string, samples []models.Sample) error {
	if event != EventUpdateData {
		return errors.New("unexpected event " + event)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batches = append(b.batches, samples)
	return nil
}

func (b *recordingBroadcaster) ViewerCount() int { return 1 }

func (b *recordingBroadcaster) all() [][]models.Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]models.Sample(nil), b.batches...)
}

// gateBroadcaster holds its first broadcast until release is closed and
// records batches once delivered
type gateBroadcaster struct {
	recordingBroadcaster
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (b *gateBroadcaster) Broadcast(event string, samples []models.Sample) error {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.entered)
		<-b.release
	}
	return b.recordingBroadcaster.Broadcast(event, samples)
}

type recordingViewer struct {
	sent [][]models.Sample
}

func (v *recordingViewer) ID() string { return "viewer" }

func (v *recordingViewer) Send(event string, samples []models.Sample) error {
	v.sent = append(v.sent, samples)
	return nil
}

func sample(id, vehicle int64, ts string) models.Sample {
	return models.Sample{
		ID:        id,
		VehicleID: vehicle,
		Latitude:  10,
		Longitude: -74,
		Timestamp: models.MustTimestamp(ts),
	}
}

func newTestCoordinator(store LatestStore) (*Coordinator, *recordingBroadcaster, *timeutil.MockClock) {
	clock := timeutil.NewMockClock(models.MustTimestamp("2025-06-01 10:00:00").Time)
	c := NewCoordinator(store, clock, 5*time.Second)
	b := &recordingBroadcaster{}
	c.AddBroadcaster(b)
	return c, b, clock
}

func TestPollSendsOnlyChangedVehicles(t *testing.T) {
	store := &fakeStore{}
	store.set(sample(1, 1, "2025-06-01 10:00:00"), sample(2, 2, "2025-06-01 10:00:00"))
	c, b, _ := newTestCoordinator(store)

	batch, err := c.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch, 2)

	// only vehicle 2 reported since the last tick
	store.set(sample(1, 1, "2025-06-01 10:00:00"), sample(5, 2, "2025-06-01 10:00:05"))
	batch, err = c.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, int64(2), batch[0].VehicleID)
	assert.Equal(t, int64(5), batch[0].ID)

	// nothing new: no event at all
	batch, err = c.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch)

	batches := b.all()
	require.Len(t, batches, 2, "one event per poll with changes")
	assert.Len(t, batches[0], 2)
	assert.Equal(t, []models.Sample{sample(5, 2, "2025-06-01 10:00:05")}, batches[1])
}

func TestPublishParticipatesInChangeDetection(t *testing.T) {
	store := &fakeStore{}
	c, b, _ := newTestCoordinator(store)

	s := sample(7, 3, "2025-06-01 10:00:00")
	c.Publish(s)
	c.Publish(s)
	require.Len(t, b.all(), 1)

	store.set(s)
	batch, err := c.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch, "poll does not resend a published sample")

	// an older row read by a slow poll never moves a vehicle backwards
	c.Publish(sample(9, 3, "2025-06-01 10:00:10"))
	store.set(sample(8, 3, "2025-06-01 10:00:05"))
	batch, err = c.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Len(t, b.all(), 2)
}

func TestOnConnectSnapshot(t *testing.T) {
	store := &fakeStore{}
	store.set(sample(3, 2, "2025-06-01 10:00:00"), sample(4, 1, "2025-06-01 10:00:01"))
	c, b, _ := newTestCoordinator(store)

	v := &recordingViewer{}
	require.NoError(t, c.OnConnect(context.Background(), v))
	require.Len(t, v.sent, 1)
	require.Len(t, v.sent[0], 2)
	assert.Equal(t, int64(1), v.sent[0][0].VehicleID, "ordered by vehicle")
	assert.Equal(t, int64(2), v.sent[0][1].VehicleID)
	assert.Empty(t, b.all(), "a snapshot is not a broadcast")

	// the seeded state is not re-sent by the next poll
	batch, err := c.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Equal(t, 2, store.calls)

	// once seeded, connecting does not hit storage
	require.NoError(t, c.OnConnect(context.Background(), &recordingViewer{}))
	assert.Equal(t, 2, store.calls)
}

func TestOnConnectWithNoData(t *testing.T) {
	c, _, _ := newTestCoordinator(&fakeStore{})
	v := &recordingViewer{}
	require.NoError(t, c.OnConnect(context.Background(), v))
	assert.Empty(t, v.sent)
}

func TestSnapshotStorageError(t *testing.T) {
	store := &fakeStore{err: errors.New("disk I/O error")}
	c, _, _ := newTestCoordinator(store)

	_, err := c.Snapshot(context.Background())
	assert.Error(t, err)
}

func TestRunPollsOnTicks(t *testing.T) {
	store := &fakeStore{err: errors.New("database is locked")}
	c, b, clock := newTestCoordinator(store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return clock.TickerCount() == 1 }, time.Second, time.Millisecond)

	// a failing poll is logged and the loop keeps going
	clock.Advance(5 * time.Second)
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.calls == 1
	}, time.Second, time.Millisecond)

	store.set(sample(1, 1, "2025-06-01 10:00:05"))
	clock.Advance(5 * time.Second)
	require.Eventually(t, func() bool { return len(b.all()) == 1 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWebSocketHub(t *testing.T) {
	store := &fakeStore{}
	store.set(sample(1, 1, "2025-06-01 10:00:00"))
	c, _, _ := newTestCoordinator(store)
	hub := NewWebSocketHub(c)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var snapshot Frame
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, EventUpdateData, snapshot.Event)
	require.Len(t, snapshot.Data, 1)
	assert.Equal(t, int64(1), snapshot.Data[0].ID)

	require.Eventually(t, func() bool { return hub.ViewerCount() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 2, c.ViewerCount(), "hub plus the recording broadcaster")

	c.Publish(sample(2, 4, "2025-06-01 10:00:05"))

	var update Frame
	require.NoError(t, conn.ReadJSON(&update))
	require.Len(t, update.Data, 1)
	assert.Equal(t, int64(4), update.Data[0].VehicleID)
	assert.Equal(t, "2025-06-01 10:00:05", update.Data[0].Timestamp.String())

	hub.Shutdown()
	require.Eventually(t, func() bool { return hub.ViewerCount() == 0 }, time.Second, time.Millisecond)
}

func TestSocketIOBroadcaster(t *testing.T) {
	c, _, _ := newTestCoordinator(&fakeStore{})
	b := NewSocketIOBroadcaster(c)
	b.Start()
	defer b.Close()

	assert.Equal(t, 0, b.ViewerCount())
	assert.NoError(t, b.Broadcast(EventUpdateData, []models.Sample{sample(1, 1, "2025-06-01 10:00:00")}))

	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/socket.io/?EIO=3&transport=polling")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPollAndPublishDeliverInDecisionOrder(t *testing.T) {
	store := &fakeStore{}
	store.set(sample(5, 1, "2025-06-01 10:00:00"))
	clock := timeutil.NewMockClock(models.MustTimestamp("2025-06-01 10:00:00").Time)
	c := NewCoordinator(store, clock, 5*time.Second)
	b := &gateBroadcaster{entered: make(chan struct{}), release: make(chan struct{})}
	c.AddBroadcaster(b)

	polled := make(chan struct{})
	go func() {
		c.Poll(context.Background())
		close(polled)
	}()
	<-b.entered

	published := make(chan struct{})
	go func() {
		c.Publish(sample(6, 1, "2025-06-01 10:00:05"))
		close(published)
	}()

	// the newer sample must wait for the poll batch already being delivered
	assert.Never(t, func() bool { return len(b.all()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	close(b.release)
	<-polled
	<-published

	batches := b.all()
	require.Len(t, batches, 2)
	assert.Equal(t, int64(5), batches[0][0].ID)
	assert.Equal(t, int64(6), batches[1][0].ID)
}

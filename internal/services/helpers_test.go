package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MorMundHS-MA/GDV/internal/config"
	"github.com/MorMundHS-MA/GDV/internal/dataprocessing"
	"github.com/MorMundHS-MA/GDV/internal/files"
	"github.com/MorMundHS-MA/GDV/internal/shared/testutil"
	"github.com/MorMundHS-MA/GDV/pkg/contracts/events"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestLoader(t *testing.T, sources map[string]string, opts ...LoaderOption) (*Loader, *files.MapFetcher, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	fetcher := files.NewMapFetcher(sources)
	opts = append([]LoaderOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewLoader(fetcher, config.Default().Sources, dataprocessing.DefaultNameOverrides(), logger, opts...), fetcher, logs
}

func loadWorld(t *testing.T) *DataSource {
	t.Helper()
	loader, _, _ := newTestLoader(t, testutil.WorldSources())
	ds, err := loader.LoadData(context.Background())
	require.NoError(t, err)
	return ds
}

// mockLoader is a testify mock of DatasetLoader
type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) LoadData(ctx context.Context) (*DataSource, error) {
	args := m.Called(ctx)
	ds, _ := args.Get(0).(*DataSource)
	return ds, args.Error(1)
}

// fakeBroadcaster records broadcasts
type fakeBroadcaster struct {
	mu       sync.Mutex
	clients  int
	messages []events.WebSocketMessage
}

func (f *fakeBroadcaster) Broadcast(msg events.WebSocketMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakeBroadcaster) ClientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients
}

func (f *fakeBroadcaster) setClients(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients = n
}

func (f *fakeBroadcaster) sent() []events.WebSocketMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.WebSocketMessage(nil), f.messages...)
}

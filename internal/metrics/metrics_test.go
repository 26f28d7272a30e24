package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexander-akhmetov/sceneprobe/internal/event"
	"github.com/alexander-akhmetov/sceneprobe/internal/scene"
)

var sceneA = scene.Identity{Name: "SceneA", Path: "Assets/Scenes/SceneA.unity"}

func scrape(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url) //nolint:noctx // test server
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollectorRecordsLoads(t *testing.T) {
	c := New("sceneprobe")
	now := time.Now()

	c.Handle(event.LoadStarted(sceneA, now))
	srv := httptest.NewServer(NewRouter(c))
	defer srv.Close()

	body := scrape(t, srv.URL+"/metrics")
	assert.Contains(t, body, `sceneprobe_scene_loading{scene="SceneA"} 1`)

	c.Handle(event.LoadCompleted(sceneA, 80*time.Millisecond, now))
	c.Handle(event.LoadUntimed(scene.Identity{Name: "Lobby"}, now))

	body = scrape(t, srv.URL+"/metrics")
	assert.Contains(t, body, `sceneprobe_scene_loading{scene="SceneA"} 0`)
	assert.Contains(t, body, `sceneprobe_scene_loads_total{scene="SceneA"} 1`)
	assert.Contains(t, body, `sceneprobe_scene_load_duration_seconds_count{scene="SceneA"} 1`)
	assert.Contains(t, body, `sceneprobe_scene_load_duration_seconds_sum{scene="SceneA"} 0.08`)
	assert.Contains(t, body, `sceneprobe_scene_load_duration_seconds_bucket{scene="SceneA",le="0.08"} 1`)
	assert.Contains(t, body, `sceneprobe_scene_loads_untimed_total{scene="Lobby"} 1`)
	assert.NotContains(t, body, `sceneprobe_scene_loads_total{scene="Lobby"}`)
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := New("a")
	b := New("b")
	a.Handle(event.LoadCompleted(sceneA, time.Second, time.Now()))

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	assert.Empty(t, families)

	families, err = a.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewRouter(New("sceneprobe")))
	defer srv.Close()

	assert.Equal(t, "ok\n", scrape(t, srv.URL+"/healthz"))

	resp, err := http.Post(srv.URL+"/metrics", "text/plain", nil) //nolint:noctx // test server
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServerServeAndShutdown(t *testing.T) {
	c := New("sceneprobe")
	s, err := Listen("127.0.0.1:0", c)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	c.Handle(event.LoadCompleted(sceneA, time.Millisecond, time.Now()))
	assert.Contains(t, scrape(t, "http://"+s.Addr()+"/metrics"), "sceneprobe_scene_loads_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenBadAddr(t *testing.T) {
	_, err := Listen("256.0.0.1:bad", New("x"))
	assert.Error(t, err)
}

package modules

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/intelli-widgets/internal/dom"
)

type recordingRuntime struct {
	mu    sync.Mutex
	srcs  []string
	delay map[string]time.Duration
	fail  map[string]bool
}

func (r *recordingRuntime) Execute(ctx context.Context, src string) error {
	for suffix, d := range r.delay {
		if strings.HasSuffix(src, suffix) {
			time.Sleep(d)
		}
	}
	r.mu.Lock()
	r.srcs = append(r.srcs, src)
	r.mu.Unlock()
	for suffix := range r.fail {
		if strings.HasSuffix(src, suffix) {
			return errors.New("boom")
		}
	}
	return nil
}

func (r *recordingRuntime) executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.srcs...)
}

func TestLoadedIgnoresVisualization(t *testing.T) {
	doc := dom.New()
	l, err := New(doc, Config{CDNBase: "https://cdn.example.com", Runtime: StaticRuntime{}})
	require.NoError(t, err)

	doc.Window().Define(Chart.Global)
	assert.False(t, l.Loaded())

	doc.Window().Define(ChartPlugin.Global)
	assert.True(t, l.Loaded())
	assert.False(t, l.VisualizationLoaded())
}

func TestStartLoadsPluginAfterChart(t *testing.T) {
	doc := dom.New()
	rt := &recordingRuntime{delay: map[string]time.Duration{Chart.Path: 40 * time.Millisecond}}
	l, err := New(doc, Config{
		CDNBase:       "https://cdn.example.com/",
		FrameInterval: time.Millisecond,
		Runtime:       rt,
	})
	require.NoError(t, err)

	l.Start(context.Background())
	l.Start(context.Background())
	l.Wait()

	assert.True(t, l.Loaded())
	assert.True(t, l.VisualizationLoaded())

	srcs := rt.executed()
	require.Len(t, srcs, 3)

	chartAt, pluginAt := -1, -1
	for i, s := range srcs {
		switch s {
		case "https://cdn.example.com/" + Chart.Path:
			chartAt = i
		case "https://cdn.example.com/" + ChartPlugin.Path:
			pluginAt = i
		}
	}
	assert.Less(t, chartAt, pluginAt)

	n, err := doc.Count(`head script[type="module"]`)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestInjectModuleGateCancelled(t *testing.T) {
	doc := dom.New()
	l, err := New(doc, Config{CDNBase: "https://cdn", FrameInterval: time.Millisecond, Runtime: StaticRuntime{}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = l.InjectModule(ctx, ChartPlugin, l.ChartLoaded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateFailed, l.Status()[ChartPlugin.Name])

	n, err := doc.Count("script")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRuntimeFailureLeavesGlobalUndefined(t *testing.T) {
	doc := dom.New()
	rt := &recordingRuntime{fail: map[string]bool{Visualization.Path: true}}
	l, err := New(doc, Config{CDNBase: "https://cdn", FrameInterval: time.Millisecond, Runtime: rt})
	require.NoError(t, err)

	l.Start(context.Background())
	l.Wait()

	st := l.Status()
	assert.Equal(t, StateLoaded, st[Chart.Name])
	assert.Equal(t, StateLoaded, st[ChartPlugin.Name])
	assert.Equal(t, StateFailed, st[Visualization.Name])
	assert.True(t, l.Loaded())
}

func TestHTTPRuntime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.js") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("export default {}"))
	}))
	defer srv.Close()

	rt := HTTPRuntime{Client: srv.Client()}
	assert.NoError(t, rt.Execute(context.Background(), srv.URL+"/chart.js"))
	assert.Error(t, rt.Execute(context.Background(), srv.URL+"/missing.js"))
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, Config{CDNBase: "x", Runtime: StaticRuntime{}})
	assert.Error(t, err)
	_, err = New(dom.New(), Config{Runtime: StaticRuntime{}})
	assert.Error(t, err)
	_, err = New(dom.New(), Config{CDNBase: "x"})
	assert.Error(t, err)
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/streamcache/internal/config"
	"github.com/ManuGH/streamcache/internal/log"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestManager(t *testing.T, listen string, handler http.Handler) *manager {
	t.Helper()
	mgr, err := NewManager(config.ServerConfig{
		ListenAddr:      listen,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: 2 * time.Second,
	}, Deps{Logger: log.WithComponent("test"), APIHandler: handler})
	require.NoError(t, err)
	return mgr.(*manager)
}

// startManager runs Start in the background and returns its result channel
// once the listener is bound.
func startManager(t *testing.T, ctx context.Context, mgr *manager) (string, <-chan error) {
	t.Helper()
	errChan := make(chan error, 1)
	go func() { errChan <- mgr.Start(ctx) }()

	addrCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	addr, err := mgr.Addr(addrCtx)
	require.NoError(t, err)
	return addr, errChan
}

// hookLog records shutdown hook invocations in order.
type hookLog struct {
	mu    sync.Mutex
	order []string
}

func (h *hookLog) hook(name string, err error) ShutdownHook {
	return func(context.Context) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.order = append(h.order, name)
		return err
	}
}

func (h *hookLog) calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

func TestNewManager_Validation(t *testing.T) {
	tests := []struct {
		name string
		deps Deps
		want error
	}{
		{name: "valid", deps: Deps{Logger: log.WithComponent("test"), APIHandler: http.NotFoundHandler()}},
		{name: "disabled logger", deps: Deps{Logger: zerolog.Nop(), APIHandler: http.NotFoundHandler()}, want: ErrMissingLogger},
		{name: "missing handler", deps: Deps{Logger: log.WithComponent("test")}, want: ErrMissingAPIHandler},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, err := NewManager(config.ServerConfig{ListenAddr: "127.0.0.1:0"}, tt.deps)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, defaultShutdownTimeout, mgr.(*manager).serverCfg.ShutdownTimeout)
		})
	}
}

func TestManager_AddrWaitsForBind(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mgr := newTestManager(t, "127.0.0.1:0", http.NotFoundHandler())

	// Not started: Addr gives up with the caller's context.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := mgr.Addr(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	runCtx, stop := context.WithCancel(context.Background())
	addr, errChan := startManager(t, runCtx, mgr)
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.NotEqual(t, "0", port)

	stop()
	require.NoError(t, <-errChan)
}

func TestManager_ServesAndRunsHooksLIFO(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mgr := newTestManager(t, "127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("#EXTM3U\n"))
	}))

	hooks := &hookLog{}
	mgr.RegisterShutdownHook("telemetry", hooks.hook("telemetry", nil))
	mgr.RegisterShutdownHook("store", hooks.hook("store", errors.New("close failed")))
	mgr.RegisterShutdownHook("scheduler", hooks.hook("scheduler", nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, errChan := startManager(t, ctx, mgr)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + addr + "/playlist.m3u")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errChan:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "hook store")
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}

	// A failing hook does not stop the remaining ones.
	assert.Equal(t, []string{"scheduler", "store", "telemetry"}, hooks.calls())
}

func TestManager_BindFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()

	mgr := newTestManager(t, occupied.Addr().String(), http.NotFoundHandler())
	hooks := &hookLog{}
	mgr.RegisterShutdownHook("store", hooks.hook("store", nil))

	err = mgr.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start API server")
	assert.Empty(t, hooks.calls(), "Start must not run hooks on bind failure")

	// The caller's Shutdown still releases resources.
	require.NoError(t, mgr.Shutdown(context.Background()))
	assert.Equal(t, []string{"store"}, hooks.calls())
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	mgr := newTestManager(t, "127.0.0.1:0", http.NotFoundHandler())
	assert.ErrorIs(t, mgr.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestManager_StartTwice(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mgr := newTestManager(t, "127.0.0.1:0", http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())
	_, errChan := startManager(t, ctx, mgr)

	require.Error(t, mgr.Start(context.Background()))

	cancel()
	require.NoError(t, <-errChan)
}

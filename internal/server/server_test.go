// Copyright 2026 The Datagov Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     time.Second,
		ShutdownTimeout: 2 * time.Second,
	}
}

// TestPurpose: Validates that shutdown hooks run after the listener stops, last registered first.
// Scope: Unit Test
// Security: Availability (runs are failed rather than left running on shutdown)
// Expected: Hooks run in LIFO order and Serve returns the first hook error.
// Test Case ID: SRV-01
func TestServer_ShutdownOrder(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	srv := New(handler, testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	var order []string
	boom := errors.New("redis close failed")
	srv.OnShutdown("runner", func(context.Context) error {
		order = append(order, "runner")
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		order = append(order, "redis")
		return boom
	})
	srv.OnShutdown("tracer", func(context.Context) error {
		order = append(order, "tracer")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, []string{"tracer", "redis", "runner"}, order)
}

func TestServer_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig()
	cfg.Addr = ln.Addr().String()
	srv := New(http.NotFoundHandler(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err = srv.Run(context.Background())
	assert.Error(t, err, "address already in use")
}

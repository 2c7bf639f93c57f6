package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/coreman2200/radioshack-strip/internal/config"
	"github.com/coreman2200/radioshack-strip/internal/loop"
	"github.com/coreman2200/radioshack-strip/internal/ws"
	"github.com/coreman2200/radioshack-strip/pattern"
	"github.com/coreman2200/radioshack-strip/strip"
)

func simConfig(t *testing.T) string {
	t.Helper()
	c := config.Default()
	c.Driver = "sim"
	c.LEDs = 3
	c.Hold.PerUnit = 1
	p := filepath.Join(t.TempDir(), "strip.yaml")
	require.NoError(t, config.Save(p, c))
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPatterns(t *testing.T) {
	out, err := execute(t, "patterns")
	require.NoError(t, err)
	assert.Equal(t, pattern.Names(), strings.Fields(out))
}

func TestFill(t *testing.T) {
	out, err := execute(t, "fill", "--config", simConfig(t), "--log-level", "error", "#102030")
	require.NoError(t, err)
	assert.Equal(t, "#102030 #102030 #102030", strings.TrimSpace(out))
}

func TestFillFlagsOverrideFile(t *testing.T) {
	out, err := execute(t, "fill", "-c", simConfig(t), "--leds", "2", "--log-level", "error", "FF0000")
	require.NoError(t, err)
	assert.Equal(t, "#FF0000 #FF0000", strings.TrimSpace(out))
}

func TestFillRejectsBadColor(t *testing.T) {
	_, err := execute(t, "fill", "-c", simConfig(t), "purple")
	assert.Error(t, err)
}

func TestOff(t *testing.T) {
	out, err := execute(t, "off", "-c", simConfig(t), "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "#000000 #000000 #000000", strings.TrimSpace(out))
}

func TestLoadErrors(t *testing.T) {
	_, err := execute(t, "off", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = execute(t, "off", "-c", simConfig(t), "--brightness", "300")
	assert.ErrorContains(t, err, "brightness")
}

func TestApplyReload(t *testing.T) {
	s := strip.New(2, &gpiotest.Pin{N: "sim"},
		strip.WithHolder(strip.HolderFunc(func(int) {})),
		strip.WithGuard(strip.NopGuard{}))
	l := loop.New(s, pattern.Solid{Color: 0x0000FF}, 0, zerolog.Nop())

	c := config.Default()
	c.Pattern = "solid"
	c.Color = "#FF0000"
	c.Brightness = 255
	c.FPS = 10
	applyReload(l, c, zerolog.Nop())
	l.Step(0)
	assert.Equal(t, uint32(0xFF0000), s.PixelColor(1))

	c.Pattern = "nope"
	c.Color = "#00FF00"
	applyReload(l, c, zerolog.Nop())
	l.Step(0)
	assert.Equal(t, uint32(0xFF0000), s.PixelColor(1))
}

// logBuffer collects JSON log lines written from several goroutines.
type logBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *logBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// find returns the first entry logged with msg.
func (l *logBuffer) find(msg string) map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	sc := bufio.NewScanner(bytes.NewReader(l.b.Bytes()))
	for sc.Scan() {
		var e map[string]any
		if json.Unmarshal(sc.Bytes(), &e) == nil && e["message"] == msg {
			return e
		}
	}
	return nil
}

func (l *logBuffer) waitFor(t *testing.T, msg string) map[string]any {
	t.Helper()
	var e map[string]any
	require.Eventually(t, func() bool {
		e = l.find(msg)
		return e != nil
	}, 5*time.Second, 10*time.Millisecond, "no %q log", msg)
	return e
}

// start runs the command tree in the background until ctx ends.
func start(ctx context.Context, args ...string) (*logBuffer, <-chan error) {
	root := NewRootCmd()
	logs := &logBuffer{}
	root.SetOut(io.Discard)
	root.SetErr(logs)
	root.SetArgs(append(args, "--log-json"))
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()
	return logs, done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("command did not stop")
		return nil
	}
}

func rewrite(t *testing.T, path string, edit func(*config.Config)) {
	t.Helper()
	c, err := config.Load(path)
	require.NoError(t, err)
	edit(c)
	require.NoError(t, config.Save(path, c))
}

func TestRunStopsAtDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	logs, done := start(ctx, "run", "-c", simConfig(t), "--watch=false", "--fps", "100", "--pattern", "wipe")

	require.NoError(t, wait(t, done))
	e := logs.waitFor(t, "stopped")
	assert.Greater(t, e["frames"], 0.0)
	assert.Equal(t, "wipe", logs.find("running")["pattern"])
}

func TestRunReloadsConfig(t *testing.T) {
	path := simConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logs, done := start(ctx, "run", "-c", path, "--fps", "100")
	logs.waitFor(t, "config watcher started")

	rewrite(t, path, func(c *config.Config) {
		c.Pattern = "solid"
		c.Brightness = 10
	})
	e := logs.waitFor(t, "config reloaded")
	assert.Equal(t, "solid", e["pattern"])
	assert.Equal(t, 10.0, e["brightness"])

	cancel()
	require.NoError(t, wait(t, done))
}

func TestServe(t *testing.T) {
	path := simConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logs, done := start(ctx, "serve", "-c", path, "--addr", "127.0.0.1:0")
	addr, _ := logs.waitFor(t, "HTTP server listening")["addr"].(string)
	require.NotEmpty(t, addr)

	resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
	require.NoError(t, err)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, true, health["ok"])
	assert.Equal(t, 3.0, health["pixels"])

	logs.waitFor(t, "config watcher started")
	rewrite(t, path, func(c *config.Config) { c.Brightness = 0 })
	assert.Equal(t, 0.0, logs.waitFor(t, "config reloaded")["brightness"])

	ctl, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/control", addr), nil)
	require.NoError(t, err)
	for _, m := range []ws.Message{{Op: "fill", Color: 0xFFFFFF}, {Op: "show"}} {
		require.NoError(t, ctl.WriteJSON(m))
		var rep ws.Reply
		require.NoError(t, ctl.ReadJSON(&rep))
		assert.True(t, rep.OK, m.Op)
	}
	ctl.Close()

	resp, err = http.Get(fmt.Sprintf("http://%s/metrics", addr))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "rsstrip_frame_sent_total 1")

	cancel()
	require.NoError(t, wait(t, done))
}

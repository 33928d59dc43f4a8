package websocketPkg

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"HelmetGuard/internal/entity"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	received []string
	closed   chan struct{}
	onOpen   func(conn *websocket.Conn)
}

func newFakeBackend(t *testing.T, onOpen func(conn *websocket.Conn)) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{t: t, closed: make(chan struct{}), onOpen: onOpen}

	fb.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := fb.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		defer close(fb.closed)

		if fb.onOpen != nil {
			fb.onOpen(conn)
		}

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			fb.mu.Lock()
			fb.received = append(fb.received, string(msg))
			fb.mu.Unlock()
		}
	}))
	t.Cleanup(fb.srv.Close)

	return fb
}

func (fb *fakeBackend) wsURL() string {
	return "ws" + strings.TrimPrefix(fb.srv.URL, "http")
}

func (fb *fakeBackend) messages() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.received...)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func tinyPNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestOpenThenCloseReleasesEverything(t *testing.T) {
	fb := newFakeBackend(t, nil)
	ep := DefaultEndpoints()["detect"]

	s := NewSession(fb.wsURL(), ep, WithLogger(quietLogger()))
	assert.Equal(t, StateIdle, s.State())

	src := NewPushSource()
	require.NoError(t, s.Attach(src))
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateStreaming, s.State())

	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())
	assert.False(t, src.Active())
	assert.NoError(t, s.Err())

	select {
	case <-fb.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("backend socket still open after Close")
	}

	_, open := <-s.Frames()
	assert.False(t, open)

	// Second close is a no-op.
	assert.NoError(t, s.Close())
}

func TestCloseBeforeStart(t *testing.T) {
	s := NewSession("ws://127.0.0.1:1", DefaultEndpoints()["stream"], WithLogger(quietLogger()))
	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())

	_, open := <-s.Frames()
	assert.False(t, open)
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)
}

func TestStartFailureClosesSession(t *testing.T) {
	s := NewSession("ws://127.0.0.1:1", DefaultEndpoints()["stream"],
		WithLogger(quietLogger()), WithHandshakeTimeout(500*time.Millisecond))

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateClosed, s.State())
	assert.Error(t, s.Err())
}

func TestBase64FramesAreDrawn(t *testing.T) {
	frame := tinyPNG(t)
	fb := newFakeBackend(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(frame))
	})

	s := NewSession(fb.wsURL(), DefaultEndpoints()["stream"], WithLogger(quietLogger()))
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	select {
	case f := <-s.Frames():
		assert.Equal(t, entity.FrameImage, f.Kind)
		assert.Equal(t, frame, f.Image)
		assert.Equal(t, 4, f.Width)
		assert.Equal(t, 3, f.Height)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}

	w, h := s.Surface().Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)
}

func TestJSONEnvelopes(t *testing.T) {
	fb := newFakeBackend(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"timestamp":"t","helmet_results":[{"status":"no_helmet"}],"warning":"경고: 헬멧 미착용"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"alert":true,"message":"경고: 헬멧 미착용"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"Invalid image data"}`))
	})

	s := NewSession(fb.wsURL(), DefaultEndpoints()["detect"], WithLogger(quietLogger()))
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	var kinds []entity.FrameKind
	for len(kinds) < 3 {
		select {
		case f := <-s.Frames():
			kinds = append(kinds, f.Kind)
			if f.Kind == entity.FrameResult {
				require.NotNil(t, f.Result)
				assert.Equal(t, 1, f.Result.CountStatus(entity.NoHelmetStatus))
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("received only %v", kinds)
		}
	}
	assert.Equal(t, []entity.FrameKind{entity.FrameResult, entity.FrameAlert, entity.FrameError}, kinds)
}

func TestCapturedFramesArePushed(t *testing.T) {
	fb := newFakeBackend(t, nil)
	s := NewSession(fb.wsURL(), DefaultEndpoints()["detect"], WithLogger(quietLogger()))
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	src := NewPushSource()
	require.NoError(t, s.Attach(src))
	assert.True(t, src.Push("abc"))

	assert.Eventually(t, func() bool {
		msgs := fb.messages()
		return len(msgs) == 1 && msgs[0] == "data:image/jpeg;base64,abc"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListenOnlyEndpointRejectsCapture(t *testing.T) {
	s := NewSession("ws://127.0.0.1:1", DefaultEndpoints()["cctv"], WithLogger(quietLogger()))
	assert.ErrorIs(t, s.Attach(NewPushSource()), ErrPushDisabled)
}

func TestBackendCloseEndsSession(t *testing.T) {
	fb := newFakeBackend(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	})

	s := NewSession(fb.wsURL(), DefaultEndpoints()["webcam"], WithLogger(quietLogger()))
	require.NoError(t, s.Start(context.Background()))

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not close")
	}
	assert.Equal(t, StateClosed, s.State())
}

func TestContextCancelClosesSession(t *testing.T) {
	fb := newFakeBackend(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	s := NewSession(fb.wsURL(), DefaultEndpoints()["stream"], WithLogger(quietLogger()))
	require.NoError(t, s.Start(ctx))
	cancel()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not close on cancel")
	}
}

func TestRegistryKeepsOneSessionPerTab(t *testing.T) {
	fb := newFakeBackend(t, nil)
	r := NewRegistry()

	first := NewSession(fb.wsURL(), DefaultEndpoints()["stream"], WithLogger(quietLogger()))
	require.NoError(t, first.Start(context.Background()))
	assert.False(t, r.Register("tab-1", first))

	second := NewSession(fb.wsURL(), DefaultEndpoints()["stream"], WithLogger(quietLogger()))
	require.NoError(t, second.Start(context.Background()))
	assert.True(t, r.Register("tab-1", second))

	assert.Equal(t, StateClosed, first.State())
	assert.Equal(t, StateStreaming, second.State())

	r.Release("tab-1", first)
	assert.Equal(t, 1, r.Len())

	r.CloseAll()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, StateClosed, second.State())
}

func TestDecodeFrame(t *testing.T) {
	f, err := DecodeFrame(PayloadBase64, []byte("data:image/jpeg;base64,QUJD\n"))
	require.NoError(t, err)
	assert.Equal(t, "QUJD", f.Image)

	_, err = DecodeFrame(PayloadBase64, []byte("  "))
	assert.Error(t, err)

	_, err = DecodeFrame(PayloadJSON, []byte("QUJD"))
	assert.Error(t, err)

	mode, err := ParsePayloadMode("JSON")
	require.NoError(t, err)
	assert.Equal(t, PayloadJSON, mode)

	_, err = ParsePayloadMode("xml")
	assert.Error(t, err)
}

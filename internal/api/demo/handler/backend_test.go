package demoHandler

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	demoService "HelmetGuard/internal/api/demo/service"
	"HelmetGuard/internal/middleware"
	"HelmetGuard/internal/views"
	"HelmetGuard/pkg/content"
	"HelmetGuard/pkg/detector"
	"HelmetGuard/pkg/handlerUtil"
	"HelmetGuard/pkg/metrics"
	"HelmetGuard/pkg/redis"
	"HelmetGuard/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// relayWait bounds every wait on the fake backend.
const relayWait = 15 * time.Second

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// fakeBackend stands in for the detection service over HTTP and websocket.
type fakeBackend struct {
	t      *testing.T
	server *httptest.Server

	mu           sync.Mutex
	detectStatus int
	detectBody   string
	detectGate   chan struct{}
	detectCalls  int
	videoBody    string
	resultPaths  []string
	pushed       chan string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{
		t:            t,
		detectStatus: http.StatusOK,
		pushed:       make(chan string, 4),
	}
	b.detectBody = `{
		"timestamp": "2024-05-01T12:00:00",
		"all_detections": [{"bbox": [1, 2, 30, 40], "confidence": 0.91, "class": "motorcycle"}],
		"helmet_results": [
			{"status": "no_helmet", "message": "헬멧 미착용", "helmet_confidence": 0.1, "no_helmet_confidence": 0.9},
			{"status": "helmet", "message": "헬멧 착용", "helmet_confidence": 0.8, "no_helmet_confidence": 0.2}
		],
		"warning": "경고: 헬멧 미착용 운전자가 감지되었습니다",
		"image": "` + pngBase64(t, 8, 6) + `"
	}`

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	mux := http.NewServeMux()
	mux.HandleFunc("/detect", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.detectCalls++
		gate := b.detectGate
		status, body := b.detectStatus, b.detectBody
		b.mu.Unlock()

		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, "file field missing", http.StatusBadRequest)
			return
		}
		if gate != nil {
			gate <- struct{}{}
			<-gate
		}

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("/process-video", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		body := b.videoBody
		b.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("/result/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.resultPaths = append(b.resultPaths, r.URL.EscapedPath())
		b.mu.Unlock()
		if strings.HasSuffix(r.URL.Path, "missing.mp4") {
			http.Error(w, "result not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = io.WriteString(w, "fake-mp4-bytes")
	})
	mux.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(pngBase64(t, 16, 9)))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
		_, _, _ = conn.ReadMessage()
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case b.pushed <- string(msg):
			default:
			}
			reply := `{"timestamp":"t","helmet_results":[{"status":"helmet","message":"ok"}],"warning":"안전: 모두 착용","image":"` + pngBase64(t, 4, 4) + `"}`
			if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
				return
			}
		}
	})

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) wsURL() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http")
}

type testEnv struct {
	app     *fiber.App
	backend *fakeBackend
	service demoService.IDemoService
	content *content.Content
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	backend := newFakeBackend(t)
	c := content.MustDefault()
	mw := middleware.New(logger, middleware.Config{RateLimit: 1000, RateBurst: 1000})

	svc := demoService.New(
		logger,
		detector.New(detector.Config{BaseURL: backend.server.URL, Timeout: relayWait}, logger),
		redis.NewMemoryStore(time.Hour),
		metrics.New(),
		demoService.StreamConfig{BaseURL: backend.wsURL()},
	)
	t.Cleanup(svc.CloseStreams)

	app := fiber.New(fiber.Config{
		Views:        views.NewEngine(),
		ErrorHandler: handlerUtil.New(logger).HandleFiberError,
	})
	app.Use(mw.NewRequestIDMiddleware())
	app.Use(mw.NewSessionMiddleware())

	New(logger, validator.New(), mw, svc, utils.NewWithLimits(1024*1024, 4*1024*1024), c).Start(app)

	return &testEnv{app: app, backend: backend, service: svc, content: c}
}

// listen serves the app on a real socket for websocket tests.
func (e *testEnv) listen(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = e.app.Listener(ln) }()
	t.Cleanup(func() { _ = e.app.Shutdown() })

	return "ws://" + ln.Addr().String()
}

func multipartBody(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="upload.bin"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &body, w.FormDataContentType()
}

func uploadRequest(t *testing.T, target, contentType string, data []byte, cookie *http.Cookie) *http.Request {
	t.Helper()

	body, formType := multipartBody(t, contentType, data)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", formType)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatal("session cookie not issued")
	return nil
}

package demoHandler

import (
	"bytes"
	"encoding/base64"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) newSession(t *testing.T) *http.Cookie {
	t.Helper()
	resp := e.do(t, httptest.NewRequest(http.MethodGet, "/demo", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return sessionCookie(t, resp)
}

func TestDemoPageTabs(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/demo", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("#image-panel").Length())
	assert.Equal(t, 4, doc.Find(".tabs a").Length())
	assert.Equal(t, 0, doc.Find(".result-image").Length())

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/demo?tab=stream", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err = goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "/demo/ws/stream", doc.Find("#stream-panel").AttrOr("data-socket", ""))
	assert.Equal(t, "false", doc.Find("#stream-panel").AttrOr("data-push", ""))

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/demo?tab=webcam", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err = goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "/demo/ws/detect", doc.Find("#stream-panel").AttrOr("data-socket", ""))
	assert.Equal(t, "true", doc.Find("#stream-panel").AttrOr("data-push", ""))
	assert.Equal(t, 1, doc.Find("#camera").Length())
	assert.Equal(t, env.content.Demo.WarningPrefix, doc.Find("#stream-panel").AttrOr("data-warning-prefix", ""))

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/demo?tab=radar", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDetectJSON(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.newSession(t)

	resp := env.do(t, uploadRequest(t, "/api/v1/detect", "image/jpeg", []byte("jpeg-bytes"), cookie))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Result struct {
			Timestamp     string `json:"timestamp"`
			AllDetections []struct {
				Class string `json:"class"`
			} `json:"all_detections"`
			Warning string `json:"warning"`
		} `json:"result"`
		Summary struct {
			HelmetCount   int  `json:"helmet_count"`
			NoHelmetCount int  `json:"no_helmet_count"`
			ShowWarning   bool `json:"show_warning"`
		} `json:"summary"`
	}
	require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "2024-05-01T12:00:00", body.Result.Timestamp)
	require.Len(t, body.Result.AllDetections, 1)
	assert.Equal(t, "motorcycle", body.Result.AllDetections[0].Class)
	assert.Equal(t, 1, body.Summary.HelmetCount)
	assert.Equal(t, 1, body.Summary.NoHelmetCount)
	assert.True(t, body.Summary.ShowWarning)
}

func TestDetectValidatesUpload(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.newSession(t)

	resp := env.do(t, uploadRequest(t, "/api/v1/detect", "text/plain", []byte("hello"), cookie))
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp = env.do(t, uploadRequest(t, "/api/v1/detect", "image/png", bytes.Repeat([]byte("x"), 2*1024*1024), cookie))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", nil)
	req.AddCookie(cookie)
	resp = env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	env.backend.mu.Lock()
	assert.Zero(t, env.backend.detectCalls)
	env.backend.mu.Unlock()
}

func TestDetectSurfacesBackendBody(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.newSession(t)

	env.backend.mu.Lock()
	env.backend.detectStatus = http.StatusUnprocessableEntity
	env.backend.detectBody = "이미지를 처리할 수 없습니다"
	env.backend.mu.Unlock()

	resp := env.do(t, uploadRequest(t, "/api/v1/detect", "image/jpeg", []byte("jpeg"), cookie))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"이미지를 처리할 수 없습니다"}`, string(body))
}

func TestDetectFormKeepsPriorResultOnFailure(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.newSession(t)

	resp := env.do(t, uploadRequest(t, "/demo/detect", "image/jpeg", []byte("jpeg"), cookie))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)

	src := doc.Find(".result-image").AttrOr("src", "")
	assert.True(t, strings.HasPrefix(src, "data:image/jpeg;base64,"), src)
	assert.Contains(t, doc.Find(".banner.warning").Text(), "경고")
	assert.Equal(t, 0, doc.Find(".banner.error").Length())
	assert.Equal(t, "헬멧 미착용: 1", strings.TrimSpace(doc.Find(".count.no-helmet").Text()))

	env.backend.mu.Lock()
	env.backend.detectStatus = http.StatusInternalServerError
	env.backend.detectBody = "model unavailable"
	env.backend.mu.Unlock()

	resp = env.do(t, uploadRequest(t, "/demo/detect", "image/jpeg", []byte("jpeg"), cookie))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	doc, err = goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "model unavailable", strings.TrimSpace(doc.Find(".banner.error").Text()))
	assert.Equal(t, src, doc.Find(".result-image").AttrOr("src", ""))

	req := httptest.NewRequest(http.MethodGet, "/demo", nil)
	req.AddCookie(cookie)
	resp = env.do(t, req)
	doc, err = goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, src, doc.Find(".result-image").AttrOr("src", ""))
	assert.Equal(t, 0, doc.Find(".banner.error").Length())
}

func TestSafeWarningIsNotABanner(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.newSession(t)

	env.backend.mu.Lock()
	env.backend.detectBody = `{"timestamp":"t","helmet_results":[{"status":"helmet","message":"헬멧 착용"}],"warning":"안전: 모든 운전자가 헬멧을 착용했습니다"}`
	env.backend.mu.Unlock()

	resp := env.do(t, uploadRequest(t, "/demo/detect", "image/jpeg", []byte("jpeg"), cookie))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, 0, doc.Find(".banner.warning").Length())
	assert.Contains(t, doc.Find(".banner.safe").Text(), "안전")
	assert.Equal(t, 0, doc.Find(".result-image").Length())
}

func TestEmptyHelmetResultsRenderZeroCounts(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.newSession(t)

	env.backend.mu.Lock()
	env.backend.detectBody = `{"timestamp":"t","all_detections":[],"helmet_results":[]}`
	env.backend.mu.Unlock()

	resp := env.do(t, uploadRequest(t, "/demo/detect", "image/jpeg", []byte("jpeg"), cookie))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "헬멧 착용: 0", strings.TrimSpace(doc.Find(".count.helmet").Text()))
	assert.Equal(t, "헬멧 미착용: 0", strings.TrimSpace(doc.Find(".count.no-helmet").Text()))
	assert.Equal(t, 0, doc.Find(".banner.warning").Length())
	assert.Equal(t, 0, doc.Find(".helmet-results li").Length())
}

func TestConcurrentUploadIsRejected(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.newSession(t)

	gate := make(chan struct{})
	release := sync.OnceFunc(func() { close(gate) })
	t.Cleanup(release)
	env.backend.mu.Lock()
	env.backend.detectGate = gate
	env.backend.mu.Unlock()

	firstReq := uploadRequest(t, "/api/v1/detect", "image/jpeg", []byte("one"), cookie)
	first := make(chan int, 1)
	go func() {
		resp, err := env.app.Test(firstReq, -1)
		if err != nil {
			first <- 0
			return
		}
		first <- resp.StatusCode
	}()

	// Wait until the first upload is parked inside the backend.
	select {
	case <-gate:
	case status := <-first:
		t.Fatalf("first upload finished early with status %d", status)
	case <-time.After(relayWait):
		t.Fatal("first upload never reached the backend")
	}

	resp := env.do(t, uploadRequest(t, "/api/v1/detect", "image/jpeg", []byte("two"), cookie))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	other := env.newSession(t)
	env.backend.mu.Lock()
	env.backend.detectGate = nil
	env.backend.mu.Unlock()
	resp = env.do(t, uploadRequest(t, "/api/v1/detect", "image/jpeg", []byte("three"), other))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	release()
	select {
	case status := <-first:
		assert.Equal(t, http.StatusOK, status)
	case <-time.After(relayWait):
		t.Fatal("first upload never completed")
	}

	resp = env.do(t, uploadRequest(t, "/api/v1/detect", "image/jpeg", []byte("four"), cookie))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	env.backend.mu.Lock()
	assert.Equal(t, 3, env.backend.detectCalls)
	env.backend.mu.Unlock()
}

func TestProcessVideoShrinksThumbnail(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.newSession(t)

	env.backend.mu.Lock()
	env.backend.videoBody = `{"is_processing":false,"success":true,"message":"처리 완료","detection_count":3,"output_path":"videos/out.mp4","thumbnail":"` + pngBase64(t, 640, 360) + `"}`
	env.backend.mu.Unlock()

	resp := env.do(t, uploadRequest(t, "/api/v1/process-video", "video/mp4", []byte("mp4"), cookie))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success        bool   `json:"success"`
		DetectionCount int    `json:"detection_count"`
		OutputPath     string `json:"output_path"`
		Thumbnail      string `json:"thumbnail"`
	}
	require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&body))

	assert.True(t, body.Success)
	assert.Equal(t, 3, body.DetectionCount)
	assert.Equal(t, "videos/out.mp4", body.OutputPath)

	raw, err := base64.StdEncoding.DecodeString(body.Thumbnail)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 180, cfg.Height)
}

func TestProcessVideoRejectsImages(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.newSession(t)

	resp := env.do(t, uploadRequest(t, "/api/v1/process-video", "image/png", []byte("png"), cookie))
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestResultProxy(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/result/videos/out.mp4", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "fake-mp4-bytes", string(body))

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/result/videos/missing.mp4", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"result not found"}`, string(body))

	env.backend.mu.Lock()
	assert.Equal(t, []string{"/result/videos/out.mp4", "/result/videos/missing.mp4"}, env.backend.resultPaths)
	env.backend.mu.Unlock()
}

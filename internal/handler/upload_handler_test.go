package handler

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func setupUploadTestRouter(t *testing.T, api *API) *gin.Engine {
	t.Helper()

	r := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	r.Use(sessions.Sessions("domvlog_session", store))
	r.POST("/api/login", api.Login)

	auth := r.Group("/api")
	auth.Use(AuthRequired())
	auth.POST("/uploads", api.UploadImage)
	return r
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func multipartImage(t *testing.T, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestUploadImageSavesFile(t *testing.T) {
	api, cleanup := newTestAPI(t, "")
	defer cleanup()

	r := setupUploadTestRouter(t, api)
	cookies := loginCookies(t, r)

	body, contentType := multipartImage(t, "cover.png", "image/png", pngBytes(t, 12, 8))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	payload := decodeJSON(t, w)
	url, _ := payload["url"].(string)
	if !strings.HasPrefix(url, "/uploads/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("unexpected url %q", url)
	}
	if payload["width"].(float64) != 12 || payload["height"].(float64) != 8 {
		t.Fatalf("unexpected dimensions %v x %v", payload["width"], payload["height"])
	}
}

func TestUploadRejectsNonImagePayload(t *testing.T) {
	api, cleanup := newTestAPI(t, "")
	defer cleanup()

	r := setupUploadTestRouter(t, api)
	cookies := loginCookies(t, r)

	// Content-Type 声称是图片但内容解码不出来
	body, contentType := multipartImage(t, "fake.png", "image/png", []byte("not an image at all"))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestUploadRequiresLogin(t *testing.T) {
	api, cleanup := newTestAPI(t, "")
	defer cleanup()

	r := setupUploadTestRouter(t, api)

	body, contentType := multipartImage(t, "cover.png", "image/png", pngBytes(t, 4, 4))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

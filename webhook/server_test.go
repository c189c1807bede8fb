package webhook

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const (
	testSecret = "shh"
	testBoard  = "18056538407"
)

type countingNotifier struct {
	count int
}

func (n *countingNotifier) Notify() {
	n.count++
}

func newTestRouter(secret string) (*gin.Engine, *countingNotifier) {
	gin.SetMode(gin.TestMode)
	n := &countingNotifier{}
	return NewRouter(Config{BoardID: testBoard, Secret: secret, Notifier: n}), n
}

func post(r *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookSignedRequestSchedulesSync(t *testing.T) {
	r, n := newTestRouter(testSecret)
	body := `{"event":{"type":"change_column_value","boardId":18056538407,"pulseId":1}}`

	w := post(r, body, NewVerifier(testSecret).Sign([]byte(body)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "scheduled", gjson.Get(w.Body.String(), "status").String())
	assert.Equal(t, 1, n.count)
}

func TestWebhookAcceptsPrefixedSignature(t *testing.T) {
	r, n := newTestRouter(testSecret)
	body := `{"type":"create_pulse","boardId":"18056538407"}`

	w := post(r, body, "sha256="+NewVerifier(testSecret).Sign([]byte(body)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, n.count)
}

func TestWebhookTamperedBodyRejected(t *testing.T) {
	r, n := newTestRouter(testSecret)
	original := `{"type":"create_pulse","boardId":"18056538407"}`
	signature := NewVerifier(testSecret).Sign([]byte(original))

	tampered := `{"type":"delete_pulse","boardId":"18056538407"}`
	w := post(r, tampered, signature)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, n.count)

	// A body truncated into invalid JSON still fails on its signature.
	truncated := original[:len(original)-1]
	w = post(r, truncated, signature)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, n.count)

	// Re-signing the tampered body makes it acceptable again.
	w = post(r, tampered, NewVerifier(testSecret).Sign([]byte(tampered)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, n.count)
}

func TestWebhookSignedNonObjectBodyIsBadRequest(t *testing.T) {
	r, n := newTestRouter(testSecret)
	body := `[1,2,3]`

	w := post(r, body, NewVerifier(testSecret).Sign([]byte(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, n.count)
}

func TestWebhookMissingSignatureRejected(t *testing.T) {
	r, n := newTestRouter(testSecret)

	w := post(r, `{"type":"create_pulse","boardId":"18056538407"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, n.count)
}

func TestWebhookOtherBoardIgnored(t *testing.T) {
	r, n := newTestRouter("")

	w := post(r, `{"type":"create_pulse","boardId":"999"}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ignored", gjson.Get(w.Body.String(), "status").String())
	assert.Equal(t, 0, n.count)
}

func TestWebhookWithoutSecretAccepts(t *testing.T) {
	r, n := newTestRouter("")

	w := post(r, `{"type":"create_pulse","boardId":"18056538407"}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, n.count)
}

func TestWebhookRejectsNonObjectBody(t *testing.T) {
	r, n := newTestRouter("")

	for _, body := range []string{`not json`, `[1,2,3]`, `"text"`, ``} {
		w := post(r, body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Equal(t, 0, n.count)
}

func TestWebhookEchoesChallenge(t *testing.T) {
	r, n := newTestRouter(testSecret)

	w := post(r, `{"challenge":"3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"challenge":"3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P"}`, w.Body.String())
	assert.Equal(t, 0, n.count)
}

func TestWebhookBodyTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Config{BoardID: testBoard, Notifier: &countingNotifier{}, MaxBody: 16})

	w := post(r, `{"type":"create_pulse","boardId":"18056538407"}`, "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestWebhookWithoutNotifierIsInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Config{BoardID: testBoard})

	w := post(r, `{"type":"create_pulse","boardId":"18056538407"}`, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter("")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := gjson.Parse(w.Body.String())
	assert.Equal(t, "healthy", body.Get("status").String())
	assert.Equal(t, ServiceName, body.Get("service").String())
	_, err := time.Parse(time.RFC3339, body.Get("timestamp").String())
	assert.NoError(t, err)
}

func TestVerifier(t *testing.T) {
	v := NewVerifier(testSecret)
	body := []byte(`{"a":1}`)
	sig := v.Sign(body)

	assert.NoError(t, v.Verify(sig, body))
	assert.NoError(t, v.Verify("sha256="+sig, body))
	assert.ErrorIs(t, v.Verify("zz-not-hex", body), ErrSignature)
	assert.ErrorIs(t, v.Verify(sig, []byte(`{"a":2}`)), ErrSignature)
	assert.ErrorIs(t, v.Verify("", body), ErrSignature)

	assert.False(t, NewVerifier("").Enabled())
	assert.NoError(t, NewVerifier("").Verify("", body))
}

package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"wallet-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestOK(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OK(c, "Wallet fetched", map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["status"])
	assert.Equal(t, float64(200), body["statusCode"])
	assert.Equal(t, "Wallet fetched", body["message"])

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "abc", data["id"])
}

func TestCreated(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Created(c, "Wallet created", map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(201), body["statusCode"])
}

func TestError_AppError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, apperror.ErrInsufficientFunds())

	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["status"])
	assert.Equal(t, float64(402), body["statusCode"])
	assert.Equal(t, "Insufficient balance", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "WAL_003", data["errorCode"])
	assert.NotContains(t, data, "retryable")
}

func TestError_WrappedAppError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, fmt.Errorf("outer: %w", apperror.ErrInvalidPin()))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "WAL_002", data["errorCode"])
}

func TestError_RetryableFlag(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, apperror.ErrLockTimeout(fmt.Errorf("55P03")))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["retryable"])
}

func TestError_UnknownError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, fmt.Errorf("something unexpected"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Internal server error", body["message"])
	assert.Equal(t, "SYS_000", body["data"].(map[string]interface{})["errorCode"])
}

func TestInvalid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Invalid(c, "pin must be between 4 and 12 characters", []string{"a", "b"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["status"])
	assert.Equal(t, "pin must be between 4 and 12 characters", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "VAL_001", data["errorCode"])
	assert.Len(t, data["errors"], 2)
}

func TestEnvelope_RawDataReplaysVerbatim(t *testing.T) {
	first := Success(http.StatusOK, "Wallet funded", map[string]string{"balance": "100"})
	b1, err := json.Marshal(first)
	require.NoError(t, err)

	var replay struct {
		Status     bool            `json:"status"`
		StatusCode int             `json:"statusCode"`
		Message    string          `json:"message"`
		Data       json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(b1, &replay))

	b2, err := json.Marshal(Success(replay.StatusCode, replay.Message, replay.Data))
	require.NoError(t, err)
	assert.JSONEq(t, string(b1), string(b2))
}

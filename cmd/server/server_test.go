package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lalfaro-lab/sms-platform/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(gatewayURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Server.Port = 3000
	cfg.Store.Driver = config.DriverSQLite
	cfg.Store.DSN = ":memory:"
	cfg.Gateway.URL = gatewayURL
	cfg.Gateway.Username = "sms"
	cfg.Gateway.Password = "secret"
	cfg.Logging.Level = "info"
	cfg.Logging.Path = "server.log"
	return cfg
}

// setupTestServer wires the full stack against an in-memory store and
// the given gateway stub.
func setupTestServer(t *testing.T, gatewayURL string) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv, st, err := SetupServer(testConfig(gatewayURL))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})

	return srv.Handler
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func TestSetupServer(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		srv, st, err := SetupServer(nil)
		assert.Error(t, err)
		assert.Nil(t, srv)
		assert.Nil(t, st)
	})

	t.Run("invalid port", func(t *testing.T) {
		cfg := testConfig("http://gateway.local")
		cfg.Server.Port = 0
		_, _, err := SetupServer(cfg)
		assert.Error(t, err)
	})

	t.Run("unknown store driver", func(t *testing.T) {
		cfg := testConfig("http://gateway.local")
		cfg.Store.Driver = "mongodb"
		_, _, err := SetupServer(cfg)
		assert.Error(t, err)
	})
}

func TestHealthEndpoints(t *testing.T) {
	h := setupTestServer(t, "http://gateway.local")

	for _, path := range []string{"/health", "/api/health"} {
		w := doJSON(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
		assert.Contains(t, w.Body.String(), "timestamp")
	}
}

func TestSendSMSEndToEnd(t *testing.T) {
	gatewayStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		if user != "sms" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"g1"}`))
	}))
	defer gatewayStub.Close()

	h := setupTestServer(t, gatewayStub.URL)

	w := doJSON(t, h, http.MethodPost, "/api/send-sms", map[string]string{
		"phoneNumber": "+15550002",
		"message":     "hi",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var sendResp struct {
		Success bool `json:"success"`
		Data    struct {
			ID              string          `json:"id"`
			GatewayResponse json.RawMessage `json:"gatewayResponse"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sendResp))
	assert.True(t, sendResp.Success)
	assert.NotEmpty(t, sendResp.Data.ID)
	assert.JSONEq(t, `{"id":"g1"}`, string(sendResp.Data.GatewayResponse))

	// The sent message shows up in the history with the gateway id
	w = doJSON(t, h, http.MethodGet, "/api/messages?type=sent", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"gateway_message_id":"g1"`)

	// And in the counters
	w = doJSON(t, h, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_sent":1`)
	assert.Contains(t, w.Body.String(), `"today_sent":1`)
}

func TestSendSMSGatewayFailureWritesNothing(t *testing.T) {
	gatewayStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("provider down"))
	}))
	defer gatewayStub.Close()

	h := setupTestServer(t, gatewayStub.URL)

	w := doJSON(t, h, http.MethodPost, "/api/send-sms", map[string]string{
		"phoneNumber": "+15550002",
		"message":     "hi",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_sent":0`)
}

func TestContactLifecycle(t *testing.T) {
	h := setupTestServer(t, "http://gateway.local")

	// Create
	w := doJSON(t, h, http.MethodPost, "/api/contacts", map[string]string{
		"name":        "Alice",
		"phoneNumber": "+15550001",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var createResp struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &createResp))
	contactID := createResp.Data["id"]
	require.NotEmpty(t, contactID)

	// Duplicate phone is rejected
	w = doJSON(t, h, http.MethodPost, "/api/contacts", map[string]string{
		"name":        "Alice Again",
		"phoneNumber": "+15550001",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")

	// Exactly one Alice entry
	w = doJSON(t, h, http.MethodGet, "/api/contacts", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listResp struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Len(t, listResp.Data, 1)

	// Delete, then delete again
	w = doJSON(t, h, http.MethodDelete, "/api/contacts/"+contactID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodDelete, "/api/contacts/"+contactID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhookIntake(t *testing.T) {
	h := setupTestServer(t, "http://gateway.local")

	// Inbound SMS lands in the message history
	w := doJSON(t, h, http.MethodPost, "/api/webhook", map[string]interface{}{
		"event": "sms:received",
		"payload": map[string]string{
			"phoneNumber": "+15550009",
			"message":     "yo",
			"messageId":   "g9",
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/messages?type=received", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "+15550009")
	assert.Contains(t, w.Body.String(), `"gateway_message_id":"g9"`)

	// Other events record no message
	w = doJSON(t, h, http.MethodPost, "/api/webhook", map[string]interface{}{
		"event":   "sms:delivered",
		"payload": map[string]string{"messageId": "g9"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_received":1`)
}

func TestNoRoute(t *testing.T) {
	h := setupTestServer(t, "http://gateway.local")

	w := doJSON(t, h, http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

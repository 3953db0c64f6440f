package handler_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appleadapter "github.com/smallbiznis/appleid-token/internal/adapter/apple"
	httpHandler "github.com/smallbiznis/appleid-token/internal/http/handler"
	"github.com/smallbiznis/appleid-token/internal/jwt"
	"github.com/smallbiznis/appleid-token/internal/keys/keystest"
	"github.com/smallbiznis/appleid-token/internal/service"
)

// newTestHandler wires the real service against a stubbed Apple endpoint.
func newTestHandler(t *testing.T, apple http.HandlerFunc) *httpHandler.TokenHandler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stub := httptest.NewServer(apple)
	t.Cleanup(stub.Close)

	store, _ := keystest.Store(t)
	providers := keystest.ProviderTable(t)
	signer := jwt.NewAssertionSigner(store, providers, nil)
	client := appleadapter.NewHTTPProviderClient(appleadapter.Options{BaseURL: stub.URL, HTTPClient: stub.Client()})
	svc := service.NewTokenService(providers, signer, client, zap.NewNop())
	return httpHandler.NewTokenHandler(svc, zap.NewNop())
}

func serve(t *testing.T, handlerFunc gin.HandlerFunc, method, target string, body url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	handlerFunc(c)
	return w
}

func appleResponds(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestGetRefreshTokenSuccess(t *testing.T) {
	h := newTestHandler(t, appleResponds(http.StatusOK, `{"access_token":"at","refresh_token":"abc123","token_type":"Bearer"}`))

	w := serve(t, h.GetRefreshToken, http.MethodGet, "/getRefreshToken?code=validcode&build_configuration=debug", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "application/json")
	require.JSONEq(t, `{"status":true,"message":"Success","data":{"refresh_token":"abc123"}}`, w.Body.String())
}

func TestGetRefreshTokenViaPostForm(t *testing.T) {
	h := newTestHandler(t, appleResponds(http.StatusOK, `{"refresh_token":"abc123"}`))

	w := serve(t, h.GetRefreshToken, http.MethodPost, "/getRefreshToken", url.Values{
		"code":                {"validcode"},
		"build_configuration": {"release"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":true,"message":"Success","data":{"refresh_token":"abc123"}}`, w.Body.String())
}

func TestGetRefreshTokenMissingParams(t *testing.T) {
	h := newTestHandler(t, func(http.ResponseWriter, *http.Request) {
		t.Error("apple must not be called")
	})

	for _, target := range []string{
		"/getRefreshToken",
		"/getRefreshToken?code=validcode",
		"/getRefreshToken?build_configuration=debug",
		"/getRefreshToken?code=&build_configuration=debug",
	} {
		w := serve(t, h.GetRefreshToken, http.MethodGet, target, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, target)
		require.JSONEq(t, `{"status":false,"message":"Authorization code and build configuration are required","data":null}`, w.Body.String(), target)
	}
}

func TestGetRefreshTokenUnknownConfiguration(t *testing.T) {
	h := newTestHandler(t, appleResponds(http.StatusOK, `{"refresh_token":"abc123"}`))

	w := serve(t, h.GetRefreshToken, http.MethodGet, "/getRefreshToken?code=validcode&build_configuration=staging", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"status":false,"message":"Unknown build configuration: staging","data":null}`, w.Body.String())
	require.NotContains(t, w.Body.String(), "abc123")
}

func TestGetRefreshTokenWithoutRefreshToken(t *testing.T) {
	h := newTestHandler(t, appleResponds(http.StatusOK, `{"access_token":"at","token_type":"Bearer"}`))

	w := serve(t, h.GetRefreshToken, http.MethodGet, "/getRefreshToken?code=validcode&build_configuration=debug", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"status":false,"message":"No refresh token in response","data":null}`, w.Body.String())
}

func TestGetRefreshTokenProviderFailure(t *testing.T) {
	h := newTestHandler(t, appleResponds(http.StatusBadRequest, `{"error":"invalid_grant"}`))

	w := serve(t, h.GetRefreshToken, http.MethodGet, "/getRefreshToken?code=validcode&build_configuration=debug", nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), `"status":false`)
	require.Contains(t, w.Body.String(), "invalid_grant")
	require.Contains(t, w.Body.String(), `"data":null`)
}

func TestGetRefreshTokenNetworkFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := httptest.NewServer(http.NotFoundHandler())
	dead := stub.URL
	stub.Close()

	store, _ := keystest.Store(t)
	providers := keystest.ProviderTable(t)
	client := appleadapter.NewHTTPProviderClient(appleadapter.Options{BaseURL: dead})
	svc := service.NewTokenService(providers, jwt.NewAssertionSigner(store, providers, nil), client, nil)
	h := httpHandler.NewTokenHandler(svc, nil)

	w := serve(t, h.GetRefreshToken, http.MethodGet, "/getRefreshToken?code=validcode&build_configuration=debug", nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), `"status":false`)
	require.Contains(t, w.Body.String(), "token exchange request")
}

func TestRevokeTokenSuccess(t *testing.T) {
	h := newTestHandler(t, appleResponds(http.StatusOK, ``))

	w := serve(t, h.RevokeToken, http.MethodGet, "/revokeToken?refresh_token=sometoken&build_configuration=release", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":true,"message":"Token revoked successfully","data":null}`, w.Body.String())
}

func TestRevokeTokenProviderFailure(t *testing.T) {
	h := newTestHandler(t, appleResponds(http.StatusBadRequest, `{"error":"invalid_client"}`))

	w := serve(t, h.RevokeToken, http.MethodGet, "/revokeToken?refresh_token=sometoken&build_configuration=release", nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), `"status":false`)
	require.Contains(t, w.Body.String(), `"message":"Error revoking token: apple revoke endpoint: status 400: invalid_client"`)
	require.Contains(t, w.Body.String(), `"data":null`)
}

func TestRevokeTokenValidation(t *testing.T) {
	h := newTestHandler(t, appleResponds(http.StatusOK, ``))

	w := serve(t, h.RevokeToken, http.MethodGet, "/revokeToken?build_configuration=release", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"status":false,"message":"Refresh token and build configuration are required","data":null}`, w.Body.String())

	w = serve(t, h.RevokeToken, http.MethodGet, "/revokeToken?refresh_token=sometoken&build_configuration=qa", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"status":false,"message":"Unknown build configuration: qa","data":null}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, appleResponds(http.StatusOK, ``))

	w := serve(t, h.Health, http.MethodGet, "/healthz", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":true,"message":"ok","data":{"build_configurations":["debug","release"]}}`, w.Body.String())
}

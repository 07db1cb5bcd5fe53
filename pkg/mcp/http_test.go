package mcp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestHTTPServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(newTestServer(t).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, sessionID string, msg any) *http.Response {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeHTTP(t *testing.T, resp *http.Response) testResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var out testResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// openSession performs the initialize handshake and returns the session ID.
func openSession(t *testing.T, url string) string {
	t.Helper()
	resp := post(t, url, "", initMessages()[0])
	out := decodeHTTP(t, resp)
	require.Nil(t, out.Error)
	id := resp.Header.Get(SessionHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err, "session id %q", id)
	return id
}

func TestHTTP_SessionLifecycle(t *testing.T) {
	ts := newTestHTTPServer(t)
	sid := openSession(t, ts.URL)

	resp := post(t, ts.URL, sid, map[string]any{"jsonrpc": "2.0", "method": "notifications/initialized"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	out := decodeHTTP(t, post(t, ts.URL, sid, toolCall(1, "get_ticket", map[string]any{"ticket_id": "TK001"})))
	result := decodeToolResult(t, out)
	require.Contains(t, result.Content[0].Text, `"assignee":"U005"`)

	req, err := http.NewRequest(http.MethodDelete, ts.URL, nil)
	require.NoError(t, err)
	req.Header.Set(SessionHeader, sid)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	require.Equal(t, http.StatusNoContent, del.StatusCode)

	require.Equal(t, http.StatusNotFound, post(t, ts.URL, sid, call(2, "tools/list", nil)).StatusCode)
}

func TestHTTP_SessionsShareStore(t *testing.T) {
	ts := newTestHTTPServer(t)
	first := openSession(t, ts.URL)
	second := openSession(t, ts.URL)
	require.NotEqual(t, first, second)

	created := decodeToolResult(t, decodeHTTP(t, post(t, ts.URL, first, toolCall(1, "create_ticket", map[string]any{
		"title": "Slow search", "description": "Search takes 10s", "reporter": "U002",
	}))))
	var id string
	require.NoError(t, json.Unmarshal(created.StructuredContent.Result, &id))

	got := decodeToolResult(t, decodeHTTP(t, post(t, ts.URL, second, toolCall(2, "get_ticket", map[string]any{"ticket_id": id}))))
	require.Contains(t, got.Content[0].Text, `"status":"open"`)
	require.Contains(t, got.Content[0].Text, `"assignee":null`)
}

func TestHTTP_SessionRequired(t *testing.T) {
	ts := newTestHTTPServer(t)
	require.Equal(t, http.StatusBadRequest, post(t, ts.URL, "", call(1, "tools/list", nil)).StatusCode)
	require.Equal(t, http.StatusNotFound, post(t, ts.URL, uuid.NewString(), call(1, "tools/list", nil)).StatusCode)
}

func TestHTTP_FailedInitializeIssuesNoSession(t *testing.T) {
	ts := newTestHTTPServer(t)
	resp := post(t, ts.URL, "", call(1, "initialize", nil))
	out := decodeHTTP(t, resp)
	require.NotNil(t, out.Error)
	require.Empty(t, resp.Header.Get(SessionHeader))
}

func TestHTTP_ParseError(t *testing.T) {
	ts := newTestHTTPServer(t)
	resp, err := http.Post(ts.URL, "application/json", bytes.NewReader([]byte("{oops")))
	require.NoError(t, err)
	defer resp.Body.Close()
	out := decodeHTTP(t, resp)
	require.Equal(t, codeParseError, out.Error.Code)
}

func TestHTTP_MethodNotAllowed(t *testing.T) {
	ts := newTestHTTPServer(t)
	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	require.Equal(t, "POST, DELETE", resp.Header.Get("Allow"))
}

func TestHTTP_DeleteUnknownSession(t *testing.T) {
	ts := newTestHTTPServer(t)
	req, err := http.NewRequest(http.MethodDelete, ts.URL, nil)
	require.NoError(t, err)
	req.Header.Set(SessionHeader, "nope")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

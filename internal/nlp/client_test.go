package nlp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/spa-booking-bot/internal/httpclient"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second, httpclient.Policy{Timeout: time.Second, GetRetries: 1}, zap.NewNop(), zap.NewNop())
}

func TestParseRelaysUpToFiveMessages(t *testing.T) {
	var got parseRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		msgs := make([]map[string]string, 7)
		for i := range msgs {
			msgs[i] = map[string]string{"type": "text", "text": "m"}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"line_messages": msgs})
	})

	res := c.Parse(context.Background(), "U1", "明天下午兩點 90分鐘")
	assert.NoError(t, res.Err)
	assert.Len(t, res.Messages, MaxMessages)
	assert.Equal(t, parseRequest{Key: "U1", Message: "明天下午兩點 90分鐘"}, got)
	assert.JSONEq(t, `{"type":"text","text":"m"}`, string(res.Messages[0]))
}

func TestParseEmptyMeansNoReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"line_messages": []}`))
	})

	res := c.Parse(context.Background(), "U1", "hi")
	assert.NoError(t, res.Err)
	assert.Empty(t, res.Messages)
}

func TestParseNon2xxApologizes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	res := c.Parse(context.Background(), "U1", "hi")
	require.Error(t, res.Err)
	require.Len(t, res.Messages, 1)
	assert.Contains(t, string(res.Messages[0]), ApologyText)
}

func TestParseMalformedJSONIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops`))
	})

	res := c.Parse(context.Background(), "U1", "hi")
	assert.NoError(t, res.Err)
	assert.Empty(t, res.Messages)
}

func TestParseTransportErrorApologizes(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second, httpclient.Policy{Timeout: time.Second}, nil, nil)

	res := c.Parse(context.Background(), "U1", "hi")
	require.Error(t, res.Err)
	require.Len(t, res.Messages, 1)
}

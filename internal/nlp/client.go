// Package nlp talks to the natural-language parsing gateway.  The gateway
// receives the LINE user id as a session key plus the raw chat text and
// returns ready-made LINE message objects that are relayed verbatim.
package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/iliyamo/spa-booking-bot/internal/httpclient"
	"github.com/iliyamo/spa-booking-bot/internal/logger"
	"github.com/iliyamo/spa-booking-bot/internal/metrics"
)

// ApologyText is relayed when the gateway cannot be reached.
const ApologyText = "抱歉，系統暫時無法處理您的請求，請稍後再試。"

// MaxMessages is the most messages one LINE reply can carry.
const MaxMessages = 5

type parseRequest struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

type parseResponse struct {
	LineMessages []json.RawMessage `json:"line_messages"`
	Error        string            `json:"error,omitempty"`
}

// Result is the outcome of one gateway call.  Messages holds at most
// MaxMessages raw LINE message objects; an empty slice means "do not
// reply".  Err is set when the call failed; Messages then carries the
// apology.
type Result struct {
	Messages []json.RawMessage
	Err      error
}

// Client calls the gateway's /parse endpoint.
type Client struct {
	rc      *resty.Client
	log     *zap.Logger
	traffic *zap.Logger
}

// NewClient builds a gateway client using the shared outbound policy with
// its own (longer) timeout.
func NewClient(baseURL string, timeout time.Duration, policy httpclient.Policy, log, traffic *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if traffic == nil {
		traffic = zap.NewNop()
	}
	return &Client{rc: policy.Resty(baseURL, timeout), log: log, traffic: traffic}
}

// Parse forwards text for the given user.
func (c *Client) Parse(ctx context.Context, userKey, text string) Result {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(parseRequest{Key: userKey, Message: text}).
		Post("/parse")
	if err != nil {
		c.log.Error("nlp gateway call failed", zap.Error(err))
		c.traffic.Warn(logger.MsgNLP, zap.String("user", userKey), zap.String("error", err.Error()))
		metrics.IncNLPCall("error")
		return apology(fmt.Errorf("nlp call: %w", err))
	}
	if !resp.IsSuccess() {
		body := truncate(resp.String(), 500)
		c.log.Error("nlp gateway returned non-2xx", zap.Int("status", resp.StatusCode()), zap.String("body", body))
		c.traffic.Warn(logger.MsgNLP, zap.String("user", userKey), zap.Int("status", resp.StatusCode()), zap.String("body", body))
		metrics.IncNLPCall("http_error")
		return apology(fmt.Errorf("nlp call: http %d", resp.StatusCode()))
	}

	var out parseResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		body := truncate(resp.String(), 500)
		c.log.Warn("nlp gateway returned malformed json", zap.Error(err), zap.String("body", body))
		c.traffic.Warn(logger.MsgNLP, zap.String("user", userKey), zap.String("error", "malformed json"), zap.String("body", body))
		metrics.IncNLPCall("malformed")
		return Result{}
	}
	if out.Error != "" {
		c.log.Warn("nlp gateway reported an error", zap.String("error", out.Error))
	}
	msgs := make([]json.RawMessage, 0, len(out.LineMessages))
	for _, m := range out.LineMessages {
		if len(m) == 0 || string(m) == "null" {
			continue
		}
		msgs = append(msgs, m)
		if len(msgs) == MaxMessages {
			break
		}
	}
	metrics.IncNLPCall("ok")
	c.traffic.Info(logger.MsgNLP, zap.String("user", userKey), zap.Int("messages", len(msgs)))
	return Result{Messages: msgs}
}

func apology(err error) Result {
	msg, _ := json.Marshal(map[string]string{"type": "text", "text": ApologyText})
	return Result{Messages: []json.RawMessage{msg}, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

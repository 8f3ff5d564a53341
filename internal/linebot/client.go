// Package linebot wraps the LINE Messaging API client with the message
// builders the bot uses and records every send attempt in the traffic log.
package linebot

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"go.uber.org/zap"

	"github.com/iliyamo/spa-booking-bot/internal/logger"
)

// MaxReplyMessages is the LINE limit of messages per reply or push.
const MaxReplyMessages = 5

// Client sends replies and pushes.
type Client struct {
	api     *messaging_api.MessagingApiAPI
	traffic *zap.Logger
}

// New builds a client.  endpoint may be empty for the public API; hc carries
// the shared outbound policy.
func New(accessToken, endpoint string, hc *http.Client, traffic *zap.Logger) (*Client, error) {
	opts := []messaging_api.MessagingApiAPIOption{messaging_api.WithHTTPClient(hc)}
	if endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(endpoint))
	}
	api, err := messaging_api.NewMessagingApiAPI(accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("line client: %w", err)
	}
	if traffic == nil {
		traffic = zap.NewNop()
	}
	return &Client{api: api, traffic: traffic}, nil
}

// Reply answers a webhook event.  It returns the HTTP status of the call
// (0 when no response arrived).
func (c *Client) Reply(ctx context.Context, replyToken string, msgs ...messaging_api.MessageInterface) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}
	if len(msgs) > MaxReplyMessages {
		msgs = msgs[:MaxReplyMessages]
	}
	res, _, err := c.api.WithContext(ctx).ReplyMessageWithHttpInfo(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   msgs,
	})
	status := statusOf(res)
	c.record(logger.MsgReply, status, err, zap.Int("messages", len(msgs)))
	if err != nil {
		return status, fmt.Errorf("line reply: %w", err)
	}
	return status, nil
}

// Push sends messages to a user or group id.  Each call carries a fresh
// X-Line-Retry-Key.
func (c *Client) Push(ctx context.Context, to string, msgs ...messaging_api.MessageInterface) error {
	if to == "" {
		return errors.New("line push: empty recipient")
	}
	if len(msgs) == 0 {
		return nil
	}
	res, _, err := c.api.WithContext(ctx).PushMessageWithHttpInfo(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: msgs,
	}, uuid.NewString())
	c.record(logger.MsgPush, statusOf(res), err, zap.String("to", to), zap.Int("messages", len(msgs)))
	if err != nil {
		return fmt.Errorf("line push: %w", err)
	}
	return nil
}

// PushNotice sends a staff notice: the text, followed by a confirmation
// button when confirmURL is set.
func (c *Client) PushNotice(ctx context.Context, to, text, confirmURL string) error {
	msgs := []messaging_api.MessageInterface{Text(text)}
	if confirmURL != "" {
		msgs = append(msgs, ConfirmButton(confirmURL))
	}
	return c.Push(ctx, to, msgs...)
}

// BotInfo fetches the bot profile; used as a credential probe.
func (c *Client) BotInfo(ctx context.Context) (*messaging_api.BotInfoResponse, error) {
	info, err := c.api.WithContext(ctx).GetBotInfo()
	if err != nil {
		return nil, fmt.Errorf("line bot info: %w", err)
	}
	return info, nil
}

func (c *Client) record(msg string, status int, err error, fields ...zap.Field) {
	fields = append(fields, zap.Int("status", status))
	if err != nil {
		c.traffic.Warn(msg, append(fields, zap.String("outcome", "failed"), zap.Error(err))...)
		return
	}
	c.traffic.Info(msg, append(fields, zap.String("outcome", "ok"))...)
}

func statusOf(res *http.Response) int {
	if res == nil {
		return 0
	}
	return res.StatusCode
}

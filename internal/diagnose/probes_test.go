package diagnose

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/spa-booking-bot/internal/logger"
	"github.com/iliyamo/spa-booking-bot/internal/nlp"
)

type stubBot struct {
	status int
	err    error
}

func (s stubBot) BotInfo(context.Context) (*messaging_api.BotInfoResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &messaging_api.BotInfoResponse{DisplayName: "spa", UserId: "Ubot"}, nil
}

func (s stubBot) Reply(context.Context, string, ...messaging_api.MessageInterface) (int, error) {
	return s.status, s.err
}

type stubParser nlp.Result

func (s stubParser) Parse(context.Context, string, string) nlp.Result { return nlp.Result(s) }

func TestReplyProbeExpects400(t *testing.T) {
	ctx := context.Background()
	assert.True(t, ReplyAPI(ctx, stubBot{status: http.StatusBadRequest, err: errors.New("bad token")}).OK)
	assert.False(t, ReplyAPI(ctx, stubBot{status: http.StatusUnauthorized, err: errors.New("auth")}).OK)
	assert.False(t, ReplyAPI(ctx, stubBot{status: 0, err: errors.New("dial tcp")}).OK)
	assert.False(t, ReplyAPI(ctx, stubBot{status: http.StatusOK}).OK)
}

func TestBotInfoAndNLP(t *testing.T) {
	ctx := context.Background()
	c := BotInfo(ctx, stubBot{})
	assert.True(t, c.OK)
	assert.Contains(t, c.Detail, "Ubot")
	assert.False(t, BotInfo(ctx, stubBot{err: errors.New("401")}).OK)

	assert.True(t, NLP(ctx, stubParser{}).OK)
	assert.False(t, NLP(ctx, stubParser{Err: errors.New("timeout")}).OK)
}

func writeTraffic(t *testing.T, entries func(l *zap.Logger)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "traffic.txt")
	l, closeFn, err := logger.NewTrafficLogger(path)
	require.NoError(t, err)
	entries(l)
	require.NoError(t, l.Sync())
	require.NoError(t, closeFn())
	return path
}

func TestTrafficLogScan(t *testing.T) {
	path := writeTraffic(t, func(l *zap.Logger) {
		l.Info(logger.MsgReply, zap.Int("status", 200), zap.String("outcome", "ok"))
		l.Info(logger.MsgWebhook, zap.String("body", "{}"))
		l.Warn(logger.MsgReply, zap.Int("status", 400), zap.String("outcome", "failed"), zap.String("error", "Invalid reply token"))
	})
	_, rec, err := LastReply(path)
	require.NoError(t, err)
	assert.Equal(t, 400, rec.Status)

	c := TrafficLog(path)
	assert.False(t, c.OK)
	assert.Contains(t, c.Detail, "Invalid reply token")

	ok := writeTraffic(t, func(l *zap.Logger) {
		l.Info(logger.MsgReply, zap.Int("status", 200), zap.String("outcome", "ok"))
	})
	assert.True(t, TrafficLog(ok).OK)

	empty := writeTraffic(t, func(l *zap.Logger) { l.Info(logger.MsgNLP) })
	assert.True(t, TrafficLog(empty).OK)

	assert.False(t, TrafficLog(filepath.Join(t.TempDir(), "missing.txt")).OK)
}

func TestReportOutput(t *testing.T) {
	r := Report{{Name: "bot info", OK: true, Detail: "spa"}, {Name: "nlp gateway", Detail: "timeout"}}
	assert.True(t, r.Failed())
	var buf bytes.Buffer
	r.Write(&buf)
	assert.Contains(t, buf.String(), "[FAIL] nlp gateway")
}

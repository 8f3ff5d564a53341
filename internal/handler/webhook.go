package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"go.uber.org/zap"

	"github.com/iliyamo/spa-booking-bot/internal/linebot"
	"github.com/iliyamo/spa-booking-bot/internal/logger"
	"github.com/iliyamo/spa-booking-bot/internal/metrics"
	"github.com/iliyamo/spa-booking-bot/internal/nlp"
	"github.com/iliyamo/spa-booking-bot/internal/service"
)

// Chat replies for the language postback.
const (
	LangSetOK     = "語言設置成功！"
	LangSetFailed = "語言設置失敗，請稍後再試。"
)

const (
	postbackSetLang  = "set_lang="
	postbackLangPage = "lang_page="
)

// menuTriggers open the language menu when a text message starts with one
// of them (case-insensitive).
var menuTriggers = []string{"set lang", "set language", "語言設置", "setup lang", "setup language"}

// maxWebhookBody caps the payload read before signature verification.
const maxWebhookBody = 1 << 20

// Replier sends reply messages.
type Replier interface {
	Reply(ctx context.Context, replyToken string, msgs ...messaging_api.MessageInterface) (int, error)
}

// Parser forwards free text to the NLP gateway.
type Parser interface {
	Parse(ctx context.Context, userKey, text string) nlp.Result
}

type LanguageSetter interface {
	Set(ctx context.Context, lineID, code string) error
}

type GroupRegistrar interface {
	Register(ctx context.Context, groupID string) error
}

// EventGate reports whether an event id is delivered for the first time.
type EventGate interface {
	FirstSeen(ctx context.Context, id string) bool
}

// WebhookHandler receives chat platform callbacks.
type WebhookHandler struct {
	secret    string
	reply     Replier
	nlp       Parser
	languages LanguageSetter
	groups    GroupRegistrar
	gate      EventGate
	log       *zap.Logger
	traffic   *zap.Logger
}

func NewWebhookHandler(secret string, reply Replier, p Parser, langs LanguageSetter, groups GroupRegistrar,
	gate EventGate, log, traffic *zap.Logger) *WebhookHandler {
	if secret == "" || reply == nil || p == nil || langs == nil || groups == nil {
		panic("nil dependency passed to NewWebhookHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if traffic == nil {
		traffic = zap.NewNop()
	}
	return &WebhookHandler{secret: secret, reply: reply, nlp: p, languages: langs, groups: groups,
		gate: gate, log: log, traffic: traffic}
}

// Handle is POST /webhook.  Events are processed one by one in payload
// order and the platform always gets 200 once the signature checks out.
func (h *WebhookHandler) Handle(c echo.Context) error {
	r := c.Request()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	h.traffic.Info(logger.MsgWebhook, zap.String("body", string(body)))

	r.Body = io.NopCloser(bytes.NewReader(body))
	cb, err := webhook.ParseRequest(h.secret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.log.Warn("webhook: bad signature", zap.String("ip", c.RealIP()))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
		}
		h.log.Warn("webhook: malformed payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	ctx := r.Context()
	for _, ev := range cb.Events {
		h.dispatch(ctx, ev)
	}
	return c.NoContent(http.StatusOK)
}

func (h *WebhookHandler) dispatch(ctx context.Context, ev webhook.EventInterface) {
	switch e := ev.(type) {
	case webhook.MessageEvent:
		if !h.firstSeen(ctx, "message", e.WebhookEventId) {
			return
		}
		text, ok := e.Message.(webhook.TextMessageContent)
		if !ok {
			metrics.IncWebhookEvent("message", "ignored")
			return
		}
		h.onText(ctx, e.ReplyToken, userOf(e.Source), text.Text)
	case webhook.PostbackEvent:
		if !h.firstSeen(ctx, "postback", e.WebhookEventId) {
			return
		}
		data := ""
		if e.Postback != nil {
			data = e.Postback.Data
		}
		h.onPostback(ctx, e.ReplyToken, userOf(e.Source), data)
	case webhook.JoinEvent:
		if !h.firstSeen(ctx, "join", e.WebhookEventId) {
			return
		}
		h.onJoin(ctx, e.Source)
	default:
		metrics.IncWebhookEvent("other", "ignored")
	}
}

func (h *WebhookHandler) firstSeen(ctx context.Context, typ, id string) bool {
	if h.gate == nil || h.gate.FirstSeen(ctx, id) {
		return true
	}
	h.log.Info("webhook: duplicate event skipped", zap.String("event_id", id))
	metrics.IncWebhookEvent(typ, "duplicate")
	return false
}

func (h *WebhookHandler) onText(ctx context.Context, token, userID, text string) {
	if isMenuTrigger(text) {
		h.send(ctx, "message", token, linebot.LanguageMenu(menuOptions()))
		return
	}
	res := h.nlp.Parse(ctx, userID, text)
	if len(res.Messages) == 0 {
		metrics.IncWebhookEvent("message", "no_reply")
		return
	}
	h.send(ctx, "message", token, linebot.Raw(res.Messages)...)
}

func (h *WebhookHandler) onPostback(ctx context.Context, token, userID, data string) {
	switch {
	case strings.HasPrefix(data, postbackSetLang):
		code := strings.TrimPrefix(data, postbackSetLang)
		msg := LangSetOK
		if err := h.languages.Set(ctx, userID, code); err != nil {
			h.log.Warn("webhook: set language", zap.String("user", userID), zap.String("code", code), zap.Error(err))
			msg = LangSetFailed
		}
		h.send(ctx, "postback", token, linebot.Text(msg))
	case strings.HasPrefix(data, postbackLangPage):
		h.send(ctx, "postback", token, linebot.LanguageMenu(menuOptions()))
	default:
		metrics.IncWebhookEvent("postback", "ignored")
	}
}

func (h *WebhookHandler) onJoin(ctx context.Context, src webhook.SourceInterface) {
	g, ok := src.(webhook.GroupSource)
	if !ok || g.GroupId == "" {
		metrics.IncWebhookEvent("join", "ignored")
		return
	}
	if err := h.groups.Register(ctx, g.GroupId); err != nil {
		h.log.Error("webhook: register group", zap.String("group", g.GroupId), zap.Error(err))
		metrics.IncWebhookEvent("join", "error")
		return
	}
	metrics.IncWebhookEvent("join", "handled")
}

func (h *WebhookHandler) send(ctx context.Context, typ, token string, msgs ...messaging_api.MessageInterface) {
	if token == "" {
		metrics.IncWebhookEvent(typ, "no_token")
		return
	}
	if _, err := h.reply.Reply(ctx, token, msgs...); err != nil {
		h.log.Warn("webhook: reply failed", zap.String("type", typ), zap.Error(err))
		metrics.IncWebhookEvent(typ, "error")
		return
	}
	metrics.IncWebhookEvent(typ, "handled")
}

func isMenuTrigger(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, p := range menuTriggers {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

func menuOptions() []linebot.MenuOption {
	out := make([]linebot.MenuOption, 0, len(service.LanguageOptions))
	for _, o := range service.LanguageOptions {
		out = append(out, linebot.MenuOption{Label: o.Label, Data: postbackSetLang + o.Code})
	}
	return out
}

func userOf(src webhook.SourceInterface) string {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	}
	return ""
}

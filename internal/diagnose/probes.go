// Package diagnose holds the connectivity probes run by cmd/diagnose.
package diagnose

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/iliyamo/spa-booking-bot/internal/linebot"
	"github.com/iliyamo/spa-booking-bot/internal/logger"
	"github.com/iliyamo/spa-booking-bot/internal/nlp"
)

// InvalidReplyToken is accepted syntactically but never issued, so the
// reply API must answer 400.
const InvalidReplyToken = "00000000000000000000000000000000"

// ProbeSentence is sent to the NLP gateway.
const ProbeSentence = "明天下午兩點預約全身按摩"

// Check is the outcome of one probe.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Report collects checks in run order.
type Report []Check

func (r Report) Failed() bool {
	for _, c := range r {
		if !c.OK {
			return true
		}
	}
	return false
}

// Write prints one line per check.
func (r Report) Write(w io.Writer) {
	for _, c := range r {
		mark := "OK  "
		if !c.OK {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %-12s %s\n", mark, c.Name, c.Detail)
	}
}

// Bot is the part of the LINE client the probes use.
type Bot interface {
	BotInfo(ctx context.Context) (*messaging_api.BotInfoResponse, error)
	Reply(ctx context.Context, replyToken string, msgs ...messaging_api.MessageInterface) (int, error)
}

type Parser interface {
	Parse(ctx context.Context, userKey, text string) nlp.Result
}

// BotInfo verifies the access token.
func BotInfo(ctx context.Context, bot Bot) Check {
	info, err := bot.BotInfo(ctx)
	if err != nil {
		return Check{Name: "bot info", Detail: err.Error()}
	}
	return Check{Name: "bot info", OK: true, Detail: fmt.Sprintf("%s (%s)", info.DisplayName, info.UserId)}
}

// ReplyAPI calls the reply endpoint with a dead token.  400 means the
// endpoint is reachable and the credentials were accepted.
func ReplyAPI(ctx context.Context, bot Bot) Check {
	status, err := bot.Reply(ctx, InvalidReplyToken, linebot.Text("diagnose"))
	switch {
	case status == http.StatusBadRequest:
		return Check{Name: "reply api", OK: true, Detail: "invalid token rejected with 400 as expected"}
	case status == http.StatusUnauthorized:
		return Check{Name: "reply api", Detail: "401: channel access token rejected"}
	case err != nil:
		return Check{Name: "reply api", Detail: fmt.Sprintf("status %d: %v", status, err)}
	}
	return Check{Name: "reply api", Detail: fmt.Sprintf("unexpected status %d", status)}
}

// NLP posts the probe sentence to the gateway.
func NLP(ctx context.Context, p Parser) Check {
	res := p.Parse(ctx, "diagnose", ProbeSentence)
	if res.Err != nil {
		return Check{Name: "nlp gateway", Detail: res.Err.Error()}
	}
	return Check{Name: "nlp gateway", OK: true, Detail: fmt.Sprintf("%d message(s) returned", len(res.Messages))}
}

// ReplyRecord is the JSON tail of a traffic log reply line.
type ReplyRecord struct {
	Status  int    `json:"status"`
	Outcome string `json:"outcome"`
	Error   string `json:"error"`
}

// ErrNoReplyRecord means the traffic log has no reply line yet.
var ErrNoReplyRecord = errors.New("no reply recorded")

// LastReply returns the newest reply record of the traffic log at path.
func LastReply(path string) (ts string, rec ReplyRecord, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", ReplyRecord{}, err
	}
	defer f.Close()

	var last string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.Contains(line, "\t"+logger.MsgReply+"\t") {
			last = line
		}
	}
	if err := sc.Err(); err != nil {
		return "", ReplyRecord{}, err
	}
	if last == "" {
		return "", ReplyRecord{}, ErrNoReplyRecord
	}
	// ts \t LEVEL \t msg \t {json}
	parts := strings.SplitN(last, "\t", 4)
	if len(parts) < 4 {
		return "", ReplyRecord{}, fmt.Errorf("unparseable line: %q", last)
	}
	if err := json.Unmarshal([]byte(parts[3]), &rec); err != nil {
		return "", ReplyRecord{}, fmt.Errorf("unparseable fields: %w", err)
	}
	return parts[0], rec, nil
}

// TrafficLog flags the newest reply attempt when it failed.
func TrafficLog(path string) Check {
	ts, rec, err := LastReply(path)
	switch {
	case errors.Is(err, ErrNoReplyRecord):
		return Check{Name: "traffic log", OK: true, Detail: "no reply recorded yet"}
	case err != nil:
		return Check{Name: "traffic log", Detail: err.Error()}
	case rec.Outcome != "ok":
		return Check{Name: "traffic log", Detail: fmt.Sprintf("last reply at %s failed: status %d %s", ts, rec.Status, rec.Error)}
	}
	return Check{Name: "traffic log", OK: true, Detail: fmt.Sprintf("last reply at %s: status %d", ts, rec.Status)}
}

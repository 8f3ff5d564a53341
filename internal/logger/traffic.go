package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Traffic entry messages.  The diagnose scanner looks for MsgReply lines.
const (
	MsgWebhook = "webhook received"
	MsgReply   = "reply sent"
	MsgPush    = "push sent"
	MsgNLP     = "nlp result"
)

// NewTrafficLogger opens (creating if needed) the append-only traffic log at
// path and returns a console-encoded logger writing to it.  Entries are one
// line each: timestamp, level, message and the JSON-encoded fields.
func NewTrafficLogger(path string) (*zap.Logger, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open traffic log: %w", err)
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel)
	return zap.New(core), f.Close, nil
}

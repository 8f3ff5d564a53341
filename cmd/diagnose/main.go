// Command diagnose probes the LINE Messaging API and the NLP gateway with
// the configured credentials and inspects the traffic log.  It exits 1 when
// any probe fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/spa-booking-bot/internal/config"
	"github.com/iliyamo/spa-booking-bot/internal/diagnose"
	"github.com/iliyamo/spa-booking-bot/internal/httpclient"
	"github.com/iliyamo/spa-booking-bot/internal/linebot"
	"github.com/iliyamo/spa-booking-bot/internal/nlp"
)

func main() {
	_ = godotenv.Load()
	defLog := os.Getenv("TRAFFIC_LOG_PATH")
	if defLog == "" {
		defLog = "line_bot_log.txt"
	}
	trafficPath := flag.String("log", defLog, "traffic log to scan for the latest reply")
	skipNLP := flag.Bool("skip-nlp", false, "do not call the NLP gateway")
	timeout := flag.Duration("timeout", 90*time.Second, "overall deadline")
	flag.Parse()

	integ, err := config.LoadIntegrations()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	policy := httpclient.FromIntegrations(integ)
	// probe calls are not part of the bot's traffic, keep them out of the log
	bot, err := linebot.New(integ.LineAccessToken, integ.LineAPIEndpoint, policy.Client(), zap.NewNop())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	report := diagnose.Report{
		diagnose.TrafficLog(*trafficPath),
		diagnose.BotInfo(ctx, bot),
		diagnose.ReplyAPI(ctx, bot),
	}
	if !*skipNLP {
		gateway := nlp.NewClient(integ.NLPBaseURL, integ.NLPTimeout, policy, zap.NewNop(), zap.NewNop())
		report = append(report, diagnose.NLP(ctx, gateway))
	}

	report.Write(os.Stdout)
	if report.Failed() {
		os.Exit(1)
	}
}

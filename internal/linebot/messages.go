package linebot

import (
	"encoding/json"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Language menu texts.
const (
	menuAltText     = "請選擇語言"
	menuColumnTitle = "語言選擇"
	menuColumnText  = "請選擇您的語言"
	optionsPerPage  = 3
)

// MenuOption is one postback button of the language menu.
type MenuOption struct {
	Label string
	Data  string
}

// Text builds a plain text message.
func Text(s string) messaging_api.MessageInterface {
	return messaging_api.TextMessage{Text: s}
}

// LanguageMenu renders the options as a carousel, three buttons per column.
// Every column of a LINE carousel must carry the same number of actions, so
// the last column is padded with inert "-" buttons.
func LanguageMenu(opts []MenuOption) messaging_api.MessageInterface {
	var cols []messaging_api.CarouselColumn
	for i := 0; i < len(opts); i += optionsPerPage {
		actions := make([]messaging_api.ActionInterface, 0, optionsPerPage)
		for j := i; j < i+optionsPerPage; j++ {
			label, data := "-", "noop"
			if j < len(opts) {
				label, data = opts[j].Label, opts[j].Data
			}
			actions = append(actions, &messaging_api.PostbackAction{Label: label, Data: data})
		}
		cols = append(cols, messaging_api.CarouselColumn{
			Title:   menuColumnTitle,
			Text:    menuColumnText,
			Actions: actions,
		})
	}
	return &messaging_api.TemplateMessage{
		AltText:  menuAltText,
		Template: &messaging_api.CarouselTemplate{Columns: cols},
	}
}

// ConfirmButton is the button template appended to new and edited booking
// notices.
func ConfirmButton(url string) messaging_api.MessageInterface {
	return &messaging_api.TemplateMessage{
		AltText: "請確認預約",
		Template: &messaging_api.ButtonsTemplate{
			Text: "請點擊下方按鈕確認此預約",
			Actions: []messaging_api.ActionInterface{
				&messaging_api.UriAction{Label: "確認預約", Uri: url},
			},
		},
	}
}

// RawMessage relays a message object produced elsewhere (the NLP gateway)
// without decoding it into SDK types.
type RawMessage json.RawMessage

func (m RawMessage) GetType() string {
	var head struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(m, &head)
	return head.Type
}

func (m RawMessage) MarshalJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("null"), nil
	}
	return m, nil
}

// Raw converts gateway payloads into relayable messages.
func Raw(msgs []json.RawMessage) []messaging_api.MessageInterface {
	out := make([]messaging_api.MessageInterface, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, RawMessage(m))
	}
	return out
}

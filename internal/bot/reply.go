package bot

// Button is one inline keyboard button; Callback is re-parsed by
// internal/command when pressed.
type Button struct {
	Label    string `json:"label"`
	Callback string `json:"callback"`
}

// Reply is a transport-agnostic response: text plus an optional button
// grid. The chat layer renders it.
type Reply struct {
	Text    string     `json:"text"`
	Buttons [][]Button `json:"buttons,omitempty"`
}

func textReply(text string) Reply {
	return Reply{Text: text}
}

func row(buttons ...Button) []Button {
	return buttons
}

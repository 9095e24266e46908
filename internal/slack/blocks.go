// Package slack posts messages to Slack incoming webhooks using the
// Block Kit payload shape.
package slack

// Message is the webhook payload. Text is the plain fallback shown by
// surfaces that don't render blocks (and in push previews).
type Message struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

type Block struct {
	Type     string       `json:"type"`
	Text     *TextObject  `json:"text,omitempty"`
	Elements []TextObject `json:"elements,omitempty"`
}

type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Header builds a header block. Slack requires plain_text here.
func Header(text string) Block {
	return Block{
		Type: "header",
		Text: &TextObject{Type: "plain_text", Text: text, Emoji: true},
	}
}

// Section builds a mrkdwn section block.
func Section(mrkdwn string) Block {
	return Block{
		Type: "section",
		Text: &TextObject{Type: "mrkdwn", Text: mrkdwn},
	}
}

// Context builds a context block from mrkdwn elements.
func Context(elements ...string) Block {
	b := Block{Type: "context"}
	for _, el := range elements {
		b.Elements = append(b.Elements, TextObject{Type: "mrkdwn", Text: el})
	}
	return b
}

package loader

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

var errMalformedChatLog = errors.New("chat log must be a JSON object with a messages array")

// loadChatLog renders {"messages":[{"author":{"name":...},"content":...}]}
// as one "author: content" line per message.
func (l *Loader) loadChatLog(path string) (string, error) {
	data, err := l.files.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(data) {
		return "", errMalformedChatLog
	}

	messages := gjson.GetBytes(data, "messages")
	if !messages.IsArray() {
		return "", errMalformedChatLog
	}

	var lines []string
	messages.ForEach(func(_, m gjson.Result) bool {
		lines = append(lines, m.Get("author.name").String()+": "+m.Get("content").String())
		return true
	})
	return strings.Join(lines, "\n"), nil
}

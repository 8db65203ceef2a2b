package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alectobe/TelegramCoinBot/internal/commands"
)

const maxMessageLen = 4096

// requestFrom turns a command message into a dispatcher request.
// "/subscribe@CoinBot btc" becomes {Command: "subscribe", Args: ["btc"]}.
func requestFrom(msg *tgbotapi.Message) commands.Request {
	return commands.Request{
		ChatID:   msg.Chat.ID,
		ChatName: chatName(msg.Chat),
		Command:  msg.Command(),
		Args:     strings.Fields(msg.CommandArguments()),
	}
}

// chatName picks a display name: first name, then username, then group title, then the id.
func chatName(c *tgbotapi.Chat) string {
	for _, s := range []string{c.FirstName, c.UserName, c.Title} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return strconv.FormatInt(c.ID, 10)
}

// splitMessage cuts text into parts of at most limit bytes, on line breaks
// where possible.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var parts []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if cur.Len() > 0 {
				parts = append(parts, strings.TrimSuffix(cur.String(), "\n"))
				cur.Reset()
			}
			cut := runeBoundary(line, limit)
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line) > limit {
			parts = append(parts, strings.TrimSuffix(cur.String(), "\n"))
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		parts = append(parts, strings.TrimSuffix(cur.String(), "\n"))
	}
	return parts
}

// runeBoundary returns the largest i <= n that does not split a UTF-8 sequence.
func runeBoundary(s string, n int) int {
	for n > 0 && n < len(s) && s[n]&0xC0 == 0x80 {
		n--
	}
	return n
}

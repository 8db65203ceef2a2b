package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alectobe/TelegramCoinBot/internal/commands"
)

// menuCommands builds the bot command menu from the dispatcher's command list.
func menuCommands() []tgbotapi.BotCommand {
	out := make([]tgbotapi.BotCommand, 0, len(commands.Menu)+1)
	out = append(out, tgbotapi.BotCommand{Command: commands.CmdStart, Description: "start the bot"})
	for _, m := range commands.Menu {
		out = append(out, tgbotapi.BotCommand{Command: m.Command, Description: m.Description})
	}
	return out
}

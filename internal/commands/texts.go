package commands

import "strings"

// MenuItem is one entry of the bot's command menu.
type MenuItem struct {
	Command     string
	Usage       string
	Description string
}

// Menu lists user-facing commands in display order.
var Menu = []MenuItem{
	{CmdSubscribe, "/subscribe <SYMBOL>", "subscribe to a rate (e.g. /subscribe BTC)"},
	{CmdUnsubscribe, "/unsubscribe <SYMBOL>", "unsubscribe from a rate"},
	{CmdUnsubscribeAll, "/unsubscribe_all", "unsubscribe from everything"},
	{CmdSubscribeTop20, "/subscribe_top20", "subscribe to the top 20 cryptocurrencies"},
	{CmdList, "/list", "show your subscriptions"},
	{CmdRates, "/rates", "show current rates of your subscriptions in USD"},
	{CmdSetTime, "/settime HH:MM", "set the daily report time"},
	{CmdAutoUpdate, "/autoupdate on|off", "turn daily reports on or off"},
	{CmdSetInterval, "/setinterval <minutes>", "send reports every N minutes"},
	{CmdClearInterval, "/clearinterval", "stop periodic reports"},
	{CmdStatus, "/status", "show your report settings"},
	{CmdHelp, "/help", "show this help"},
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, m := range Menu {
		b.WriteString(m.Usage + " — " + m.Description + "\n")
	}
	b.WriteString("\nExample: /subscribe USD")
	return b.String()
}

// UI texts in English
const (
	greetingFmt = "👋 Hi, %s! I track exchange and crypto rates.\n\n"

	subscribeUsage   = "Please specify a ticker: /subscribe USD or /subscribe BTC"
	subscribedFmt    = "Subscribed to %s ✅"
	alreadySubFmt    = "You are already subscribed to %s."
	unsubscribeUsage = "Specify a ticker to unsubscribe: /unsubscribe BTC"
	unsubscribedFmt  = "Unsubscribed from %s ✅"
	notSubscribedFmt = "You were not subscribed to %s."
	badSymbolFmt     = "%q does not look like a ticker. Use letters and digits, e.g. BTC."

	clearedFmt     = "Unsubscribed from all %d subscriptions ✅"
	nothingToClear = "You had no subscriptions to remove."

	top20Failed     = "Could not fetch the top 20. Please try again later."
	top20Added      = "Subscribed to top 20:\n"
	top20Already    = "Already subscribed:\n"
	top20NotAdded   = "Could not subscribe:\n"
	subscriptionsHd = "Your subscriptions:\n"
	noSubscriptions = "You have no subscriptions yet. Use /subscribe <SYMBOL>"
	noRates         = "You are not subscribed to anything yet. Use /subscribe <SYMBOL>."

	setTimeUsage     = "Specify the time as HH:MM (e.g. /settime 15:30)."
	badTime          = "Invalid time format. Use HH:MM in 24-hour format."
	timeSetFmt       = "Daily report time set to %s. To enable it, use /autoupdate on"
	timeRescheduled  = "Daily reports rescheduled: every day at %s."
	autoUpdateUsage  = "Specify on or off: /autoupdate on"
	autoUpdateBadArg = "Invalid option. Use /autoupdate on or /autoupdate off"
	setTimeFirst     = "Set a time first with /settime HH:MM"
	dailyOnFmt       = "Daily reports enabled. Every day at %s I will send the rates."
	dailyOff         = "Daily reports disabled."

	setIntervalUsage = "Specify the interval in minutes: /setinterval 60"
	badInterval      = "Invalid interval. Enter a positive whole number of minutes."
	intervalOnFmt    = "Periodic reports enabled: every %d minutes."
	intervalAlready  = "Periodic reports are already off."
	intervalOff      = "Periodic reports disabled."

	statusTitle = "🧾 Your report settings:"
	statusFmt   = "• Subscriptions: %d\n• Daily: %s\n• Periodic: %s"
	notSet      = "not set"

	storeFailed    = "Something went wrong on our side. Please try again later."
	unknownCommand = "Unknown command. Send /help for the list of commands."
)

package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"TokenSentinel/internal/model"

	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02 15:04:05"

// FormatPrice renders a price without float noise. Sub-unit prices keep up
// to ten decimals so micro-cap tokens stay readable.
func FormatPrice(p float64) string {
	d := decimal.NewFromFloat(p)
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return d.StringFixed(4)
	}
	return d.Round(10).String()
}

func displaySymbol(evt *model.SignalEvent) string {
	if evt.Symbol == "" {
		return html.EscapeString(evt.TokenID)
	}
	return html.EscapeString(strings.ToUpper(evt.Symbol))
}

// FormatSignalAlert formats a crossover into a Telegram message.
func FormatSignalAlert(evt *model.SignalEvent) string {
	var b strings.Builder

	icon := "⚪"
	switch evt.Signal {
	case model.SignalBuy:
		icon = "🟢"
	case model.SignalSell:
		icon = "🔴"
	}

	b.WriteString(fmt.Sprintf("%s <b>%s</b> | %s (%s)\n\n", icon, evt.Signal, displaySymbol(evt), html.EscapeString(evt.TokenID)))
	b.WriteString(fmt.Sprintf("Price: %s\n", FormatPrice(evt.Price)))
	b.WriteString(fmt.Sprintf("MACD: %.8g\n", evt.MACD))
	b.WriteString(fmt.Sprintf("Signal: %.8g\n", evt.SignalLine))
	b.WriteString(fmt.Sprintf("Histogram: %+.8g\n", evt.Histogram))
	b.WriteString(fmt.Sprintf("MACD is now %s the signal line\n", strings.ToLower(evt.Relation.String())))
	if !evt.At.IsZero() {
		b.WriteString(fmt.Sprintf("\n%s", evt.At.Format(timeLayout)))
	}
	return b.String()
}

// FormatTickSummary formats one tick's counters.
func FormatTickSummary(sum *model.TickSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕒 <b>Last tick</b> | %s\n", sum.StartedAt.Format(timeLayout)))
	b.WriteString(fmt.Sprintf("Network: %s\n", sum.Network))
	b.WriteString(fmt.Sprintf("Tokens: %d (updated %d, unavailable %d, invalid %d)\n",
		sum.Tokens, sum.Updated, sum.Unavailable, sum.Invalid))
	b.WriteString(fmt.Sprintf("Signals: %d buy / %d sell\n", sum.Buys, sum.Sells))
	b.WriteString(fmt.Sprintf("Duration: %s", sum.Duration.Round(time.Millisecond)))
	if sum.Interrupted {
		b.WriteString(" (interrupted)")
	}
	b.WriteString("\n")
	return b.String()
}

// FormatStatus formats the /status reply.
func FormatStatus(network model.Network, tracked, listed int, last *model.TickSummary) string {
	var b strings.Builder
	b.WriteString("📊 <b>TokenSentinel status</b>\n\n")
	b.WriteString(fmt.Sprintf("Network: %s\n", network))
	b.WriteString(fmt.Sprintf("Tokens listed: %d\n", listed))
	b.WriteString(fmt.Sprintf("Tokens tracked: %d\n\n", tracked))
	if last == nil {
		b.WriteString("No tick has completed yet.\n")
		return b.String()
	}
	b.WriteString(FormatTickSummary(last))
	return b.String()
}

// FormatTokenState formats the /token reply.
func FormatTokenState(snap model.IndicatorSnapshot, relation model.Relationship) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>%s</b>\n\n", html.EscapeString(snap.TokenID)))
	b.WriteString(fmt.Sprintf("Price: %s\n", FormatPrice(snap.Price)))
	b.WriteString(fmt.Sprintf("EMA fast: %.8g\n", snap.FastEMA))
	b.WriteString(fmt.Sprintf("EMA slow: %.8g\n", snap.SlowEMA))
	b.WriteString(fmt.Sprintf("MACD: %.8g\n", snap.MACD))
	b.WriteString(fmt.Sprintf("Signal: %.8g\n", snap.Signal))
	b.WriteString(fmt.Sprintf("Histogram: %+.8g\n", snap.Histogram))
	b.WriteString(fmt.Sprintf("Relation: %s\n", relation))
	b.WriteString(fmt.Sprintf("Samples: %d\n", snap.Samples))
	return b.String()
}

// FormatRecentSignals formats the /signals reply.
func FormatRecentSignals(events []model.SignalEvent) string {
	if len(events) == 0 {
		return "No crossovers recorded yet."
	}
	var b strings.Builder
	b.WriteString("📜 <b>Recent crossovers</b>\n\n")
	for i := range events {
		evt := &events[i]
		b.WriteString(fmt.Sprintf("%s %-4s %s @ %s\n",
			evt.At.Format("01-02 15:04"), evt.Signal, displaySymbol(evt), FormatPrice(evt.Price)))
	}
	return b.String()
}

// HelpText lists the supported chat commands.
func HelpText() string {
	return "Commands:\n" +
		"/status - tracked tokens and the last tick\n" +
		"/token &lt;id&gt; - indicator state of one token\n" +
		"/signals - recent buy/sell crossovers"
}

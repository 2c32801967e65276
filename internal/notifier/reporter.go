package notifier

import (
	"context"

	"TokenSentinel/internal/logger"
	"TokenSentinel/internal/model"

	"github.com/sirupsen/logrus"
)

// Reporter receives every signal event a tick produces.
type Reporter interface {
	Report(ctx context.Context, evt *model.SignalEvent) error
	Name() string
}

// ConsoleReporter writes each event to the log.
type ConsoleReporter struct {
	log *logrus.Entry
}

func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{log: logger.Component("signal")}
}

func (c *ConsoleReporter) Name() string { return "console" }

func (c *ConsoleReporter) Report(_ context.Context, evt *model.SignalEvent) error {
	entry := c.log.WithFields(logrus.Fields{
		"tick":      evt.TickID,
		"token":     evt.TokenID,
		"symbol":    evt.Symbol,
		"price":     FormatPrice(evt.Price),
		"macd":      evt.MACD,
		"signal":    evt.SignalLine,
		"histogram": evt.Histogram,
		"relation":  evt.Relation.String(),
	})
	if evt.Signal.Actionable() {
		entry.Infof("%s crossover", evt.Signal)
		return nil
	}
	entry.Info(string(evt.Signal))
	return nil
}

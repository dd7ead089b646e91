package notification

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/avicola-track/farm-service/internal/service"
)

// Options select and configure the sink
type Options struct {
	Sink          string
	KafkaBrokers  []string
	KafkaTopic    string
	TelegramToken string
}

// newBotAPI is replaced in tests
var newBotAPI = func(token string) (MessageSender, error) {
	return tgbotapi.NewBotAPI(token)
}

// NewSink builds the sink named by opts.Sink. The returned close function releases
// transport resources and is never nil.
func NewSink(opts Options, logWriter NotificationLogWriter, logger *slog.Logger) (service.NotificationSink, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(opts.Sink)) {
	case "", SinkDB:
		if logWriter == nil {
			return nil, noop, fmt.Errorf("db notification sink requires a notification log writer")
		}
		return NewDBSink(logWriter), noop, nil

	case SinkLog:
		return NewLogSink(logger), noop, nil

	case SinkKafka:
		if len(opts.KafkaBrokers) == 0 || opts.KafkaTopic == "" {
			return nil, noop, fmt.Errorf("kafka notification sink requires KAFKA_BROKERS and KAFKA_NOTIFICATIONS_TOPIC")
		}
		sink := NewKafkaSink(NewKafkaWriter(opts.KafkaBrokers, opts.KafkaTopic))
		logger.Info("Kafka notification sink configured", "brokers", opts.KafkaBrokers, "topic", opts.KafkaTopic)
		return sink, sink.Close, nil

	case SinkTelegram:
		if opts.TelegramToken == "" {
			return nil, noop, fmt.Errorf("telegram notification sink requires TELEGRAM_BOT_TOKEN")
		}
		bot, err := newBotAPI(opts.TelegramToken)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create bot API: %w", err)
		}
		logger.Info("Telegram notification sink configured")
		return NewTelegramSink(bot), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown notification sink %q", opts.Sink)
	}
}

// Package notification holds the delivery strategies behind service.NotificationSink
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/avicola-track/farm-service/internal/models"
	"github.com/avicola-track/farm-service/internal/service"
)

// Sink names accepted by NOTIFICATION_SINK
const (
	SinkLog      = "log"
	SinkDB       = "db"
	SinkKafka    = "kafka"
	SinkTelegram = "telegram"
)

func sent(detail string) models.DeliveryResult {
	return models.DeliveryResult{Status: models.DeliverySent, Detail: detail}
}

func skipped(detail string) models.DeliveryResult {
	return models.DeliveryResult{Status: models.DeliverySkipped, Detail: detail}
}

func failed(err error) models.DeliveryResult {
	return models.DeliveryResult{Status: models.DeliveryError, Detail: err.Error()}
}

// LogSink writes events to the structured log
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a log sink
func NewLogSink(logger *slog.Logger) service.NotificationSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return SinkLog }

// Send logs the event; it always succeeds
func (s *LogSink) Send(ctx context.Context, event *models.NotificationEvent, recipient *models.User) models.DeliveryResult {
	s.logger.InfoContext(ctx, "Notification",
		"event_id", event.ID,
		"kind", event.Kind,
		"title", event.Title,
		"priority", event.Priority,
		"recipient_id", recipient.ID,
		"recipient", recipient.Username,
	)
	return sent("logged")
}

// NotificationLogWriter persists one delivery
type NotificationLogWriter interface {
	InsertNotification(ctx context.Context, entry *models.NotificationLogEntry) error
}

// DBSink stores each delivery as a notification_log row
type DBSink struct {
	writer NotificationLogWriter
	now    func() time.Time
}

// NewDBSink creates a database sink
func NewDBSink(writer NotificationLogWriter) service.NotificationSink {
	return &DBSink{writer: writer, now: time.Now}
}

func (s *DBSink) Name() string { return SinkDB }

// Send inserts a notification_log row for the recipient
func (s *DBSink) Send(ctx context.Context, event *models.NotificationEvent, recipient *models.User) models.DeliveryResult {
	entry := &models.NotificationLogEntry{
		ID:          uuid.New(),
		RecipientID: recipient.ID,
		EventKind:   event.Kind,
		Title:       event.Title,
		Body:        event.Body,
		Priority:    event.Priority,
		SubjectID:   event.SubjectID,
		Payload:     event.Payload,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.writer.InsertNotification(ctx, entry); err != nil {
		return failed(err)
	}
	return sent(entry.ID.String())
}

// MessageWriter is the producing side of a kafka.Writer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaEnvelope is the message value published per recipient
type kafkaEnvelope struct {
	*models.NotificationEvent
	RecipientID uuid.UUID `json:"recipient_id"`
	Username    string    `json:"recipient_username,omitempty"`
}

// KafkaSink publishes events keyed by recipient id
type KafkaSink struct {
	writer MessageWriter
}

// NewKafkaWriter builds the writer used by KafkaSink
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaSink creates a Kafka sink over writer
func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

func (s *KafkaSink) Name() string { return SinkKafka }

// Send publishes the event JSON; messages of one recipient share a partition
func (s *KafkaSink) Send(ctx context.Context, event *models.NotificationEvent, recipient *models.User) models.DeliveryResult {
	payload, err := json.Marshal(kafkaEnvelope{NotificationEvent: event, RecipientID: recipient.ID, Username: recipient.Username})
	if err != nil {
		return failed(fmt.Errorf("failed to encode notification: %w", err))
	}

	msg := kafka.Message{
		Key:   []byte(recipient.ID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_kind", Value: []byte(event.Kind)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return failed(fmt.Errorf("failed to publish notification: %w", err))
	}
	return sent("published")
}

// Close flushes and closes the writer
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// MessageSender is the sending side of a tgbotapi.BotAPI
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink sends events as HTML chat messages
type TelegramSink struct {
	bot MessageSender
}

// NewTelegramSink creates a Telegram sink
func NewTelegramSink(bot MessageSender) service.NotificationSink {
	return &TelegramSink{bot: bot}
}

func (s *TelegramSink) Name() string { return SinkTelegram }

// Send delivers to the recipient's chat; recipients without a telegram id are skipped
func (s *TelegramSink) Send(ctx context.Context, event *models.NotificationEvent, recipient *models.User) models.DeliveryResult {
	if recipient.TelegramID == nil {
		return skipped("recipient has no telegram id")
	}
	if err := ctx.Err(); err != nil {
		return failed(err)
	}

	msg := tgbotapi.NewMessage(*recipient.TelegramID, FormatTelegramMessage(event))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	sentMsg, err := s.bot.Send(msg)
	if err != nil {
		return failed(fmt.Errorf("telegram send failed: %w", err))
	}
	return sent(fmt.Sprintf("message %d", sentMsg.MessageID))
}

// FormatTelegramMessage renders an event as Telegram HTML
func FormatTelegramMessage(event *models.NotificationEvent) string {
	var b strings.Builder
	if event.Priority != "" {
		fmt.Fprintf(&b, "<b>[%s]</b> ", html.EscapeString(event.Priority))
	}
	fmt.Fprintf(&b, "<b>%s</b>", html.EscapeString(event.Title))
	if event.Body != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(event.Body))
	}
	return b.String()
}

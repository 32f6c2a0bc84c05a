package notify

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

type sendFunc func(ctx context.Context, from, to, subject, body string) error

type Consumer struct {
	send sendFunc
	log  *zap.Logger
}

func NewConsumer(send sendFunc, log *zap.Logger) *Consumer {
	return &Consumer{
		send: send,
		log:  log.Named("consumer"),
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
// The handler is reused across sessions, so it keeps no per-session state.
func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			var reminder Reminder
			if err := json.Unmarshal(message.Value, &reminder); err != nil {
				consumer.log.Error("", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}

			if err := consumer.send(context.Background(), reminder.From, reminder.To, reminder.Subject, reminder.Body); err != nil {
				// delivery is best effort: the scanner re-enqueues on the next run
				consumer.log.Error("consumer.send", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}

			consumer.log.Debug("Message claimed:", zap.String("to", reminder.To), zap.Time("timestamp", message.Timestamp), zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bookly/booklibrary-service/config"
	"github.com/bookly/booklibrary-service/pkg/circuit_breaker"
)

// Notifier delivers a single message. Failures are not retried here: the
// scanner logs and moves on, and an undelivered reminder is re-sent on a
// later scan.
type Notifier interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// ErrNotConfigured is returned when no delivery transport is set up. The
// caller must not record the reminder as sent.
var ErrNotConfigured = errors.New("smtp is not configured")

type Reminder struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type smtpNotifier struct {
	cfg config.SMTP
	cb  circuit_breaker.CircuitBreaker
	log *zap.Logger
}

func NewSMTPNotifier(cfg config.SMTP, log *zap.Logger) *smtpNotifier {
	return &smtpNotifier{
		cfg: cfg,
		cb:  circuit_breaker.New(10, 30*time.Second, 0.5, 3),
		log: log.Named("smtp"),
	}
}

func (n *smtpNotifier) Send(_ context.Context, from, to, subject, body string) error {
	if n.cfg.Host == "" {
		n.log.Info("smtp disabled, reminder not delivered",
			zap.String("to", to), zap.String("subject", subject))
		return ErrNotConfigured
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", from, to, subject, body)
	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Password != "" {
		auth = smtp.PlainAuth("", n.cfg.From, n.cfg.Password, n.cfg.Host)
	}
	return n.cb.Call(func() error {
		return smtp.SendMail(addr, auth, from, []string{to}, []byte(msg))
	})
}

type kafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaNotifier enqueues reminders instead of delivering them; a
// Consumer on the same topic performs the actual send.
func NewKafkaNotifier(producer sarama.SyncProducer, topic string) *kafkaNotifier {
	return &kafkaNotifier{
		producer: producer,
		topic:    topic,
	}
}

func (n *kafkaNotifier) Send(_ context.Context, from, to, subject, body string) error {
	data, err := json.Marshal(Reminder{From: from, To: to, Subject: subject, Body: body})
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: n.topic, Value: sarama.StringEncoder(data)}
	if _, _, err = n.producer.SendMessage(msg); err != nil {
		return err
	}
	return nil
}

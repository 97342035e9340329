package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending notification emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeLowStockScan is the task type for the scheduled low-stock scan.
	TaskTypeLowStockScan = "inventory:lowstock_scan"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewLowStockScanTask constructs the scheduled scan task. The payload is
// empty; recipients come from worker configuration.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeLowStockScan, nil)
}

// EmailSender delivers one composed message.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailJob processes TaskTypeSendEmail tasks.
type MailJob struct {
	Logger *slog.Logger
	Sender EmailSender
}

// Handle delivers the queued email. Malformed payloads are dropped rather
// than retried.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sender == nil {
		return errors.New("mail job: sender not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return asynq.SkipRetry
	}
	if err := j.Sender.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
		j.logger().Error("send mail", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	j.logger().Info("mail delivered", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}

func (j *MailJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeSendEmail))
	}
	return slog.Default().With(slog.String("job", TaskTypeSendEmail))
}

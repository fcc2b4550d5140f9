// Package worker delivers queued budget alerts out of band. The HTTP
// process stores alerts and publishes them; this worker turns each
// queued message into an email to the owning user.
package worker

import (
	"context"
	"fmt"

	"smartspend/internal/amqp"
	"smartspend/internal/core"
	"smartspend/internal/log"
	"smartspend/internal/mail"
)

type AlertWorker struct {
	users  core.UserRepository
	sender mail.Sender
	logger *log.Logger
}

func NewAlertWorker(users core.UserRepository, sender mail.Sender, logger *log.Logger) *AlertWorker {
	return &AlertWorker{
		users:  users,
		sender: sender,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleAlert delivers one queued alert. A returned error makes the
// consumer drop the delivery; the stored notification row is unaffected.
func (w *AlertWorker) HandleAlert(ctx context.Context, msg *amqp.AlertMessage) error {
	user, err := w.users.GetByID(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("resolve alert recipient %d: %w", msg.UserID, err)
	}

	subject, body := mail.AlertMessage(msg.Title, msg.Message)
	if err := w.sender.Send(ctx, user.Email, subject, body); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}

	w.logger.InfoContext(ctx, "alert delivered",
		log.FieldAlertID, msg.ID,
		log.FieldUserID, msg.UserID,
		log.FieldEmail, user.Email,
		log.FieldOperation, log.OpDeliver)
	return nil
}

// Run consumes the alert queue until the context is cancelled.
func (w *AlertWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeAlerts(ctx, w.HandleAlert)
}

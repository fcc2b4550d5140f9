package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"smartspend/internal/amqp"
	"smartspend/internal/core"
	"smartspend/internal/log"
)

type fakeUsers struct {
	byID map[int64]*core.User
}

func (f *fakeUsers) Create(context.Context, *core.User) error { return nil }
func (f *fakeUsers) Update(context.Context, *core.User) error { return nil }
func (f *fakeUsers) GetByEmail(context.Context, string) (*core.User, error) {
	return nil, core.ErrUserNotFound
}
func (f *fakeUsers) ExistsByEmail(context.Context, string) (bool, error) { return false, nil }

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*core.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return u, nil
}

type sentMail struct {
	to, subject, body string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (s *fakeSender) Send(_ context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func alertMsg(userID int64) *amqp.AlertMessage {
	return &amqp.AlertMessage{
		ID:        42,
		UserID:    userID,
		Title:     "Budget Exceeded: Groceries",
		Message:   "Spent: 120.00 / Budget: 100.00",
		Category:  "Groceries",
		CreatedAt: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestHandleAlertSendsEmail(t *testing.T) {
	users := &fakeUsers{byID: map[int64]*core.User{
		7: {ID: 7, Email: "ada@example.com"},
	}}
	sender := &fakeSender{}
	w := NewAlertWorker(users, sender, log.New(log.DefaultConfig()))

	if err := w.HandleAlert(context.Background(), alertMsg(7)); err != nil {
		t.Fatalf("HandleAlert: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(sender.sent))
	}
	m := sender.sent[0]
	if m.to != "ada@example.com" {
		t.Errorf("to = %q", m.to)
	}
	if m.subject != "Budget Exceeded: Groceries" {
		t.Errorf("subject = %q", m.subject)
	}
	if !strings.Contains(m.body, "Spent: 120.00 / Budget: 100.00") {
		t.Errorf("body = %q", m.body)
	}
}

func TestHandleAlertUnknownUser(t *testing.T) {
	w := NewAlertWorker(&fakeUsers{byID: map[int64]*core.User{}}, &fakeSender{}, log.New(log.DefaultConfig()))

	err := w.HandleAlert(context.Background(), alertMsg(99))
	if !errors.Is(err, core.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestHandleAlertSendFailure(t *testing.T) {
	users := &fakeUsers{byID: map[int64]*core.User{
		7: {ID: 7, Email: "ada@example.com"},
	}}
	sender := &fakeSender{err: errors.New("smtp refused")}
	w := NewAlertWorker(users, sender, log.New(log.DefaultConfig()))

	if err := w.HandleAlert(context.Background(), alertMsg(7)); err == nil {
		t.Fatal("expected error")
	}
}

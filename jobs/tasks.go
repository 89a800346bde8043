package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue all storefront jobs run on.
	QueueDefault = "default"
	// TaskTypeSendEmail delivers a transactional email.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeGuestCartReap deletes guest carts idle past the retention window.
	TaskTypeGuestCartReap = "cart:reap-guests"
)

// SendEmailPayload describes one outgoing email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// GuestCartReapPayload carries the retention window for the reaper.
type GuestCartReapPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewSendEmailTask constructs an Asynq task for an email.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewGuestCartReapTask constructs the periodic reaper task.
func NewGuestCartReapTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(GuestCartReapPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeGuestCartReap, data), nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/config"
	"github.com/arnavshah/crew-scheduler-api/pkg/logger"
)

// EmailNotifier sends events through a transactional email HTTP API.
type EmailNotifier struct {
	endpoint     string
	apiKey       string
	from         string
	adminAddress string
	client       *http.Client
	log          logger.Logger
}

type emailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// NewEmailNotifier builds a notifier from config.
func NewEmailNotifier(cfg config.EmailConfig, log logger.Logger) *EmailNotifier {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &EmailNotifier{
		endpoint:     cfg.Endpoint,
		apiKey:       cfg.APIKey,
		from:         cfg.From,
		adminAddress: cfg.AdminAddress,
		client:       &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:          log,
	}
}

func (e *EmailNotifier) Notify(ctx context.Context, ev Event) error {
	to := ev.TechnicianEmail
	if ev.Recipient == ToAdmin {
		to = e.adminAddress
	}
	if to == "" {
		return fmt.Errorf("%w for %s", ErrNoRecipient, ev.Kind)
	}

	subject, text := render(ev)
	body, err := json.Marshal(emailMessage{From: e.from, To: to, Subject: subject, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}
	e.log.Debugf("email %s sent for mission %s", ev.Kind, ev.MissionID)
	return nil
}

func render(ev Event) (string, string) {
	when := fmt.Sprintf("%s - %s", ev.MissionStart.Format("Mon 02 Jan 15:04"), ev.MissionEnd.Format("15:04"))
	who := ev.TechnicianName
	if who == "" {
		who = ev.TechnicianID
	}
	switch ev.Kind {
	case KindProposed:
		return "New mission proposal: " + ev.MissionTitle,
			fmt.Sprintf("You have been proposed for %s (%s). Please accept or reject it.", ev.MissionTitle, when)
	case KindCancelled:
		return "Mission proposal withdrawn: " + ev.MissionTitle,
			fmt.Sprintf("Your proposal for %s (%s) has been withdrawn.", ev.MissionTitle, when)
	case KindAccepted:
		return who + " accepted " + ev.MissionTitle,
			fmt.Sprintf("%s accepted %s (%s).", who, ev.MissionTitle, when)
	case KindRejected:
		return who + " rejected " + ev.MissionTitle,
			fmt.Sprintf("%s rejected %s (%s).", who, ev.MissionTitle, when)
	}
	return string(ev.Kind), ev.MissionTitle
}

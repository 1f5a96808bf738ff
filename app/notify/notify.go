// Package notify delivers backup run results via email
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"
)

//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports github.com/go-pkgz/notify Notifier

// Params defines what to notify about and how to render messages
type Params struct {
	EnabledError       bool
	EnabledCompletion  bool
	ErrorTemplate      string // optional file with html template for failed runs
	CompletionTemplate string // optional file with html template for completed runs
	HostName           string
}

// SendersParams defines email delivery
type SendersParams struct {
	SMTP      notify.SMTPParams
	FromEmail string
	ToEmails  []string
}

// Service sends notifications to all destinations
type Service struct {
	Params
	destinations []notify.Notifier
	fromEmail    string
	toEmail      []string
}

// NewService makes Service with email destination, returns nil if no recipients defined
func NewService(p Params, sp SendersParams) *Service {
	if len(sp.ToEmails) == 0 {
		return nil
	}
	return &Service{
		Params:       p,
		destinations: []notify.Notifier{notify.NewEmail(sp.SMTP)},
		fromEmail:    sp.FromEmail,
		toEmail:      sp.ToEmails,
	}
}

// Send message with subject to all destinations
func (s *Service) Send(ctx context.Context, subj, text string) error {
	var errs []error
	for _, d := range s.destinations {
		if err := d.Send(ctx, s.destination(d.Schema(), subj), text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsOnError status enabling on-error notification
func (s *Service) IsOnError() bool { return s.EnabledError }

// IsOnCompletion status enabling on-completion notification
func (s *Service) IsOnCompletion() bool { return s.EnabledCompletion }

// MakeErrorHTML renders message for failed run of the job
func (s *Service) MakeErrorHTML(schedule, name, errorLog string) (string, error) {
	return s.render(s.ErrorTemplate, defaultErrorTemplate, schedule, name, errorLog)
}

// MakeCompletionHTML renders message for completed run of the job
func (s *Service) MakeCompletionHTML(schedule, name string) (string, error) {
	return s.render(s.CompletionTemplate, defaultCompletionTemplate, schedule, name, "")
}

// destination makes destination url for the schema, i.e. mailto:a@example.com?from=b@example.com&subject=...
func (s *Service) destination(schema, subj string) string {
	if schema != "mailto" {
		return ""
	}
	return "mailto:" + strings.Join(s.toEmail, ",") + "?from=" + s.fromEmail + "&subject=" + url.QueryEscape(subj)
}

func (s *Service) render(file, fallback, schedule, name, errorLog string) (string, error) {
	tmpl, err := template.New("msg").Parse(fallback)
	if err != nil {
		return "", fmt.Errorf("can't parse message template: %w", err)
	}
	if file != "" {
		custom, err := loadTemplate(file)
		if err != nil {
			log.Printf("[WARN] can't use template %s, default used: %v", file, err)
		} else {
			tmpl = custom
		}
	}

	data := struct {
		Schedule string
		Name     string
		TS       time.Time
		Error    string
		Host     string
	}{
		Schedule: schedule,
		Name:     name,
		TS:       time.Now(),
		Error:    errorLog,
		Host:     s.HostName,
	}
	buf := bytes.Buffer{}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}

func loadTemplate(file string) (*template.Template, error) {
	data, err := os.ReadFile(file) //nolint:gosec // template file from options
	if err != nil {
		return nil, err
	}
	return template.New("custom").Parse(string(data))
}

const defaultErrorTemplate = `<!DOCTYPE html>
<html>
<head>
	<meta name="viewport" content="width=device-width" />
	<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
	<style type="text/css">
		body { font-family: "Arial"; font-size: 1.0em; }
		pre { padding: 0.6em; font-size: 0.7em; background-color: #E8E2A0; white-space: pre-wrap; word-wrap: break-word; }
		.bold { color: #882828; font-weight: 900; }
	</style>
</head>
<body>
	<p>Backup failed on <span class="bold">{{.Host}}</span> at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}</p>
	<ul>
		<li>Job: <span class="bold">{{.Name}}</span></li>
		<li>Schedule: <span class="bold">{{.Schedule}}</span></li>
	</ul>
	<pre>
{{.Error}}
	</pre>
</body>
</html>
`

const defaultCompletionTemplate = `<!DOCTYPE html>
<html>
<head>
	<meta name="viewport" content="width=device-width" />
	<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
	<style type="text/css">
		body { font-family: "Arial"; font-size: 1.0em; }
		.bold { color: #288828; font-weight: 900; }
	</style>
</head>
<body>
	<p>Backup completed on <span class="bold">{{.Host}}</span> at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}</p>
	<ul>
		<li>Job: <span class="bold">{{.Name}}</span></li>
		<li>Schedule: <span class="bold">{{.Schedule}}</span></li>
	</ul>
</body>
</html>
`

// Package mail sends the run report by e-mail.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"
	"time"

	"go.uber.org/zap"

	"github.com/seblum/octiv-booker/internal/domain/booking"
	"github.com/seblum/octiv-booker/internal/infrastructure/config"
)

//go:embed templates/*
var templateFS embed.FS

var (
	textReport = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/report.txt"))
	htmlReport = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/report.html"))
)

// Transport delivers a fully built message.
type Transport interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

type Notifier struct {
	cfg       config.Email
	transport Transport
	log       *zap.Logger
	now       func() time.Time
}

// New returns a notifier sending over SMTP with cfg.
func New(cfg config.Email, log *zap.Logger) *Notifier {
	return NewWithTransport(cfg, &SMTP{Host: cfg.Host, Port: cfg.Port, Username: cfg.Sender, Password: cfg.Password}, log)
}

func NewWithTransport(cfg config.Email, t Transport, log *zap.Logger) *Notifier {
	return &Notifier{cfg: cfg, transport: t, log: log.With(zap.String("component", "mail")), now: time.Now}
}

// ShouldSend applies the send_on policy to an outcome.
func ShouldSend(sendOn []string, o booking.Outcome) bool {
	want := map[booking.Outcome]string{
		booking.Success: "on_success",
		booking.Failed:  "on_failure",
		booking.Neutral: "on_neutral",
	}[o]
	for _, s := range sendOn {
		if s == want {
			return true
		}
	}
	return false
}

func (n *Notifier) Notify(ctx context.Context, run booking.Run) error {
	if !n.cfg.Enabled() {
		n.log.Debug("mail not configured, skipping report")
		return nil
	}
	if !ShouldSend(n.cfg.SendOn, run.Result.Outcome) {
		n.log.Debug("report suppressed by send_on", zap.Stringer("outcome", run.Result.Outcome))
		return nil
	}

	body, err := Render(run, n.cfg.Format)
	if err != nil {
		return err
	}
	msg := Message{
		From:    n.cfg.Sender,
		To:      n.cfg.Receivers,
		Subject: Subject(run),
		Date:    n.now(),
		HTML:    n.cfg.Format == "html",
		Body:    body,
	}
	if n.cfg.AttachLog && run.LogPath != "" {
		b, err := os.ReadFile(run.LogPath)
		if err != nil {
			n.log.Warn("log attachment unavailable", zap.String("path", run.LogPath), zap.Error(err))
		} else {
			msg.Attachments = append(msg.Attachments, Attachment{Name: filepath.Base(run.LogPath), Data: b})
		}
	}

	raw, err := msg.Bytes()
	if err != nil {
		return err
	}
	if err := n.transport.Send(ctx, msg.From, msg.To, raw); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	n.log.Info("report sent", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func Subject(run booking.Run) string {
	return fmt.Sprintf("[%s] OctivBooker report", strings.ToUpper(run.Result.Outcome.String()))
}

type reportData struct {
	Run      booking.Run
	Target   string
	Booked   bool
	Duration string
	Headline string
}

func headline(r booking.Result) string {
	switch r.Outcome {
	case booking.Success:
		if r.Reason == booking.ReasonWaitlisted {
			return "On the waiting list"
		}
		return "Class booked"
	case booking.Neutral:
		return "Nothing to book"
	default:
		return "Booking failed"
	}
}

// Render produces the report body in format "plain" or "html".
func Render(run booking.Run, format string) (string, error) {
	data := reportData{
		Run:      run,
		Booked:   run.Result.Outcome == booking.Success,
		Duration: run.Duration().Round(100 * time.Millisecond).String(),
		Headline: headline(run.Result),
	}
	if !run.TargetDate.IsZero() {
		data.Target = run.TargetDate.Format("Monday 02.01.2006")
	} else if run.Result.Info.CurrentDate != "" {
		data.Target = run.Result.Info.CurrentDate
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case "html":
		err = htmlReport.Execute(&buf, data)
	case "plain", "":
		err = textReport.Execute(&buf, data)
	default:
		return "", fmt.Errorf("unknown mail format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

package notifiers

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"caseflow.io/caseflow/internal/constants"
	"caseflow.io/caseflow/internal/workflow"
)

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Domain turns bare user ids into addresses: id@Domain.
	Domain string
}

type sendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

type MailSink struct {
	cfg  MailConfig
	send sendFunc
}

func NewMailSink(cfg MailConfig) *MailSink {
	return &MailSink{cfg: cfg, send: sendMail}
}

func (s *MailSink) Name() string { return "mail" }

func (s *MailSink) Deliver(ctx context.Context, notice workflow.Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to := s.addresses(notice.Recipients)
	if len(to) == 0 {
		return nil
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.send(ctx, addr, auth, s.cfg.From, to, s.compose(notice, to)); err != nil {
		return fmt.Errorf("failed to send mail for task %s: %w", notice.TaskID, err)
	}
	return nil
}

// sendMail follows smtp.SendMail but dials with ctx and bounds the whole
// session by the context deadline.
func sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	host, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(a); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (s *MailSink) addresses(userIDs []string) []string {
	out := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		switch {
		case strings.Contains(id, "@"):
			out = append(out, id)
		case s.cfg.Domain != "":
			out = append(out, id+"@"+s.cfg.Domain)
		}
	}
	return out
}

func (s *MailSink) compose(notice workflow.Notice, to []string) []byte {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", headerValue(s.cfg.From))
	fmt.Fprintf(&msg, "To: %s\r\n", headerValue(strings.Join(to, ", ")))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(Subject(notice))))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(Body(notice))
	return []byte(msg.String())
}

// headerValue folds every control character, CR and LF included, into a
// space so a value can never start a new header.
func headerValue(v string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, v)
}

func Subject(notice workflow.Notice) string {
	switch notice.Kind {
	case constants.NoticeSubmittedForReview:
		return "Task submitted for review: " + notice.TaskTitle
	case constants.NoticeApproved:
		return "Task approved: " + notice.TaskTitle
	case constants.NoticeRejected:
		return "Task returned for revision: " + notice.TaskTitle
	case constants.NoticeForceCompleted:
		return "Task closed: " + notice.TaskTitle
	default:
		return "Task update: " + notice.TaskTitle
	}
}

func Body(notice workflow.Notice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s (%s)\r\n", headerValue(notice.TaskTitle), notice.TaskID)
	if notice.CaseID != "" {
		fmt.Fprintf(&b, "Case: %s\r\n", notice.CaseID)
	}
	fmt.Fprintf(&b, "By: %s\r\n", notice.ActorID)
	fmt.Fprintf(&b, "At: %s\r\n", notice.OccurredAt.Format("2006-01-02 15:04 MST"))

	keys := make([]string, 0, len(notice.Context))
	for k := range notice.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := notice.Context[k]; v != "" {
			fmt.Fprintf(&b, "%s: %s\r\n", k, v)
		}
	}
	return b.String()
}

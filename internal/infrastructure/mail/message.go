package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"path"
	"strings"
	"time"
)

type Attachment struct {
	Name string
	Data []byte
}

type Message struct {
	From        string
	To          []string
	Subject     string
	Date        time.Time
	HTML        bool
	Body        string
	Attachments []Attachment

	// boundary is fixed in tests; empty lets multipart pick one.
	boundary string
}

func (m Message) contentType() string {
	if m.HTML {
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Bytes renders the RFC 5322 message. Without attachments the body is the
// single part; otherwise it is multipart/mixed.
func (m Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }
	header("From", m.From)
	header("To", strings.Join(m.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	header("Date", m.Date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")

	if len(m.Attachments) == 0 {
		header("Content-Type", m.contentType())
		header("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQP(&buf, m.Body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var parts bytes.Buffer
	mw := multipart.NewWriter(&parts)
	if m.boundary != "" {
		if err := mw.SetBoundary(m.boundary); err != nil {
			return nil, err
		}
	}
	header("Content-Type", "multipart/mixed; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	body, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {m.contentType()},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeQP(body, m.Body); err != nil {
		return nil, err
	}

	for _, a := range m.Attachments {
		ct := mime.TypeByExtension(path.Ext(a.Name))
		if ct == "" || strings.HasPrefix(ct, "text/") {
			ct = "text/plain; charset=utf-8"
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {ct},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Name})},
		})
		if err != nil {
			return nil, err
		}
		if err := writeB64(w, a.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	buf.Write(parts.Bytes())
	return buf.Bytes(), nil
}

func writeQP(w io.Writer, s string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(s)); err != nil {
		return err
	}
	return qp.Close()
}

// writeB64 wraps at 76 columns.
func writeB64(w io.Writer, b []byte) error {
	enc := base64.StdEncoding.EncodeToString(b)
	for len(enc) > 76 {
		if _, err := fmt.Fprintf(w, "%s\r\n", enc[:76]); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := fmt.Fprintf(w, "%s\r\n", enc)
	return err
}

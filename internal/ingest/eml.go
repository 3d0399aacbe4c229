package ingest

import (
	"bytes"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/mnako/letters"
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

func ingestEML(data []byte) (string, error) {
	email, err := letters.ParseEmail(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	body := strings.TrimSpace(email.Text)
	if body == "" && email.HTML != "" {
		// No text/plain part; fall back to stripped HTML.
		body = strings.TrimSpace(htmlTagRe.ReplaceAllString(email.HTML, ""))
	}
	if body == "" && email.Headers.Subject == "" {
		return "", fmt.Errorf("%w: message has no subject or body", ErrParse)
	}

	var date string
	if !email.Headers.Date.IsZero() {
		date = email.Headers.Date.Format(time.RFC1123Z)
	}
	return headerBlock(
		email.Headers.Subject,
		formatAddresses(email.Headers.From),
		formatAddresses(email.Headers.To),
		date,
		body,
	), nil
}

func formatAddresses(addrs []*mail.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

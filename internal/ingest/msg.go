package ingest

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
)

// MAPI property streams inside an Outlook .msg compound file. The
// 001F suffix is UTF-16LE, 001E is the 8-bit codepage variant.
const (
	propSubject     = "__substg1.0_0037"
	propSenderName  = "__substg1.0_0C1A"
	propDisplayTo   = "__substg1.0_0E04"
	propBody        = "__substg1.0_1000"
	propMessageDate = "__substg1.0_0039"
)

func ingestMSG(data []byte) (string, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	props := map[string]string{}
	for entry, err := doc.Next(); err != io.EOF; entry, err = doc.Next() {
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrParse, err)
		}
		name := entry.Name
		prefix, ok := matchProp(name)
		if !ok {
			continue
		}
		// Attachment and recipient substorages carry the same
		// property names; only take the top-level message ones.
		if len(entry.Path) > 0 {
			continue
		}
		raw, err := io.ReadAll(entry)
		if err != nil {
			continue
		}
		props[prefix] = decodePropString(name, raw)
	}

	body := strings.TrimSpace(props[propBody])
	subject := strings.TrimSpace(props[propSubject])
	if body == "" && subject == "" {
		return "", fmt.Errorf("%w: no message body found in msg file", ErrParse)
	}
	return headerBlock(subject, strings.TrimSpace(props[propSenderName]),
		strings.TrimSpace(props[propDisplayTo]), strings.TrimSpace(props[propMessageDate]), body), nil
}

func matchProp(streamName string) (string, bool) {
	for _, p := range []string{propSubject, propSenderName, propDisplayTo, propBody, propMessageDate} {
		if strings.HasPrefix(streamName, p) {
			return p, true
		}
	}
	return "", false
}

func decodePropString(streamName string, raw []byte) string {
	if strings.HasSuffix(streamName, "001F") {
		return decodeUTF16LE(raw)
	}
	return string(raw)
}

func decodeUTF16LE(b []byte) string {
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u = append(u, uint16(b[i])|uint16(b[i+1])<<8)
	}
	return strings.TrimRight(string(utf16.Decode(u)), "\x00")
}

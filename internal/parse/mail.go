package parse

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"path/filepath"
	"strings"
)

type mailPart struct {
	name    string
	kind    string // KindText or KindHTML
	charset string
	data    []byte
}

type mailBodies struct {
	html        *mailPart
	plain       *mailPart
	attachments []mailPart
}

// ParseMail extracts chat messages from an .eml file. The HTML body is
// preferred; the plain body is used when HTML yields no messages. Text and
// HTML attachments are parsed as sources of their own.
func (p *Parser) ParseMail(path string) (*ParseResult, error) {
	data, meta, err := readSource(path, KindMail)
	if err != nil {
		return nil, err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read mail %s: %w", path, err)
	}

	var bodies mailBodies
	if err := collectParts(textproto.MIMEHeader(msg.Header), msg.Body, &bodies); err != nil {
		return nil, fmt.Errorf("walk mail %s: %w", path, err)
	}

	result := &ParseResult{Source: meta}
	parse := func(part *mailPart, name string) {
		sub := meta
		sub.Kind = part.kind
		sub.Path = name
		r := p.ParseBlob(sub, part.data, part.charset)
		result.Messages = append(result.Messages, r.Messages...)
	}

	before := p.state
	if bodies.html != nil {
		parse(bodies.html, path)
	}
	if bodies.plain != nil && len(result.Messages) == 0 {
		// the plain body starts over from the context the HTML body saw
		p.state = before
		parse(bodies.plain, path)
	}
	for i := range bodies.attachments {
		a := &bodies.attachments[i]
		parse(a, path+"#"+a.name)
	}
	return result, nil
}

func collectParts(h textproto.MIMEHeader, body io.Reader, out *mailBodies) error {
	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		mediaType, params = "text/plain", map[string]string{}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(body, params["boundary"])
		for {
			part, err := mr.NextRawPart()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := collectParts(part.Header, part, out); err != nil {
				return err
			}
		}
	}

	data, err := decodeTransfer(h.Get("Content-Transfer-Encoding"), body)
	if err != nil {
		return err
	}

	disposition, dparams, _ := mime.ParseMediaType(h.Get("Content-Disposition"))
	name := dparams["filename"]
	if name == "" {
		name = params["name"]
	}
	if decoded, err := new(mime.WordDecoder).DecodeHeader(name); err == nil {
		name = decoded
	}

	part := mailPart{name: name, charset: params["charset"], data: data, kind: KindText}
	if mediaType == "text/html" {
		part.kind = KindHTML
	}

	if disposition == "attachment" {
		// only chat exports; images and archives are not ours to handle
		switch kind := KindFor(name); kind {
		case KindText, KindHTML:
			if filepath.Ext(name) != "" {
				part.kind = kind
				out.attachments = append(out.attachments, part)
			}
		}
		return nil
	}

	switch mediaType {
	case "text/html":
		if out.html == nil {
			out.html = &part
		}
	case "text/plain":
		if out.plain == nil {
			out.plain = &part
		}
	}
	return nil
}

func decodeTransfer(encoding string, r io.Reader) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return io.ReadAll(base64.NewDecoder(base64.StdEncoding, r))
	case "quoted-printable":
		return io.ReadAll(quotedprintable.NewReader(r))
	default:
		return io.ReadAll(r)
	}
}

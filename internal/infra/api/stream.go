package api

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"coursegen/internal/domain"
	"coursegen/internal/infra/metrics"
)

const dataPrefix = "data: "

// TokenStream decodes a text/event-stream style body into generated text
// tokens. The wire format is newline-delimited records; only lines with a
// "data: " prefix carry payloads:
//
//	data: {"token": "..."}     one token
//	data: {"event": "[DONE]"}  clean end of stream
//	data: {"error": "..."}     terminal failure
//
// Lines whose JSON does not parse are skipped, not failed: a record split
// across two network chunks shows up here as a truncated line, and its
// complete twin arrives later. The sequence is finite, non-restartable and
// meant for a single consumer. A body ending without [DONE] is a clean end.
type TokenStream struct {
	body    io.ReadCloser
	r       *bufio.Reader
	onToken func(string)
	done    bool
	err     error
}

// NewTokenStream wraps an already-validated (2xx) streaming response body.
// onToken, when non-nil, is invoked for every token before Recv returns it.
func NewTokenStream(body io.ReadCloser, onToken func(string)) *TokenStream {
	return &TokenStream{
		body:    body,
		r:       bufio.NewReader(body),
		onToken: onToken,
	}
}

type streamRecord struct {
	Token string `json:"token"`
	Event string `json:"event"`
	Error string `json:"error"`
}

// Recv returns the next token. io.EOF signals a clean end; any other error
// is terminal and repeats on subsequent calls. Tokens delivered before a
// mid-stream error are not rolled back.
func (s *TokenStream) Recv() (string, error) {
	if s.done {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	for {
		line, readErr := s.r.ReadString('\n')

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, dataPrefix) {
			var rec streamRecord
			raw := strings.TrimPrefix(trimmed, dataPrefix)
			if err := json.Unmarshal([]byte(raw), &rec); err == nil {
				switch {
				case rec.Token != "":
					metrics.IncStreamToken()
					if s.onToken != nil {
						s.onToken(rec.Token)
					}
					return rec.Token, nil
				case rec.Event == "[DONE]":
					s.finish(nil)
					return "", io.EOF
				case rec.Error != "":
					err := &domain.StreamError{Message: rec.Error}
					s.finish(err)
					return "", err
				}
			}
			// malformed or unrecognized payload: skip the line
		}

		if readErr != nil {
			if readErr == io.EOF {
				s.finish(nil)
				return "", io.EOF
			}
			s.finish(readErr)
			return "", readErr
		}
	}
}

func (s *TokenStream) finish(err error) {
	s.done = true
	s.err = err
	_ = s.body.Close()
}

// Close releases the underlying body. Safe to call more than once.
func (s *TokenStream) Close() error {
	if !s.done {
		s.done = true
	}
	return s.body.Close()
}

// Collect drains the stream into one string. Partial output accumulated
// before a mid-stream error is returned alongside that error.
func (s *TokenStream) Collect() (string, error) {
	var b strings.Builder
	for {
		tok, err := s.Recv()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
		b.WriteString(tok)
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
)

// Blob is a binary download held in memory.
type Blob struct {
	Data        []byte
	Filename    string
	ContentType string
}

// envelope is the error body convention: {"detail": "..."} with "message" as a
// fallback. FastAPI validation errors send detail as a list of objects.
type envelope struct {
	Detail  string
	Message string
}

func (e *envelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		Detail  json.RawMessage `json:"detail"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Detail = flattenMessage(raw.Detail)
	e.Message = flattenMessage(raw.Message)
	return nil
}

func flattenMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}
	return ""
}

func statusLine(status int, statusText string) string {
	return fmt.Sprintf("HTTP %d: %s", status, statusText)
}

// statusText extracts the reason phrase from a response, falling back to the
// canonical text for the code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// normalize consumes resp according to expect. On non-2xx it returns *Error with
// the envelope message. dst receives decoded JSON; the returned Blob is set only
// for ExpectBlob.
func normalize(method, reqPath string, resp *http.Response, expect Expect, dst any, fallbackName string) (Blob, error) {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		var env envelope
		if len(bytes.TrimSpace(data)) > 0 {
			if err := json.Unmarshal(data, &env); err != nil {
				env = envelope{}
			}
		}
		return Blob{}, newStatusError(method, reqPath, resp.StatusCode, statusText(resp), env)
	}

	switch expect {
	case ExpectNone:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Blob{}, nil
	case ExpectBlob:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return Blob{}, newTransportError(method, reqPath, err)
		}
		return Blob{
			Data:        data,
			Filename:    filenameFromDisposition(resp.Header.Get("Content-Disposition"), fallbackName),
			ContentType: resp.Header.Get("Content-Type"),
		}, nil
	default:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return Blob{}, newTransportError(method, reqPath, err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return Blob{}, newMalformedError(method, reqPath, resp.StatusCode, errors.New("empty body"))
		}
		if dst == nil {
			return Blob{}, nil
		}
		if err := json.Unmarshal(data, dst); err != nil {
			return Blob{}, newMalformedError(method, reqPath, resp.StatusCode, err)
		}
		return Blob{}, nil
	}
}

// filenameFromDisposition returns the filename parameter of a Content-Disposition
// header, reduced to its base name, or fallback.
func filenameFromDisposition(header, fallback string) string {
	if header == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return fallback
	}
	name := strings.TrimSpace(params["filename"])
	if name == "" {
		return fallback
	}
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return fallback
	}
	return name
}

package responseformat

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/frasertheking/toy-snowmodel/pkg/series"
	"github.com/vmihailenco/msgpack/v5"
)

// Format is a response encoding
type Format string

const (
	JSON    Format = "json"
	MsgPack Format = "msgpack"
	CSV     Format = "csv"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgPack = "application/x-msgpack"
	contentTypeCSV     = "text/csv"
)

// Tabular is implemented by response bodies that can also be sent as CSV
type Tabular interface {
	Table() *series.Table
}

// Formatter handles encoding and writing responses in JSON, MessagePack or CSV
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Negotiate picks the response format. The format query parameter wins over
// the Accept header; JSON is the default.
func (f *Formatter) Negotiate(req *http.Request) Format {
	switch Format(req.URL.Query().Get("format")) {
	case MsgPack:
		return MsgPack
	case CSV:
		return CSV
	case JSON:
		return JSON
	}

	for _, part := range strings.Split(req.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case contentTypeMsgPack, "application/msgpack":
			return MsgPack
		case contentTypeCSV:
			return CSV
		case contentTypeJSON:
			return JSON
		}
	}

	return JSON
}

// WriteResponse writes data with the given status in the negotiated format.
// CSV is only available for Tabular data; anything else falls back to JSON.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, status int, data any) error {
	// Always set CORS header
	w.Header().Set("Access-Control-Allow-Origin", "*")

	switch f.Negotiate(req) {
	case MsgPack:
		return f.writeMsgPack(w, status, data)
	case CSV:
		if t, ok := data.(Tabular); ok {
			return f.writeCSV(w, status, t.Table())
		}
	}

	return f.writeJSON(w, status, data)
}

// ErrorBody is the response body for failed requests
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// WriteError writes an error body in JSON or MessagePack
func (f *Formatter) WriteError(w http.ResponseWriter, req *http.Request, status int, body ErrorBody) error {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if f.Negotiate(req) == MsgPack {
		return f.writeMsgPack(w, status, body)
	}
	return f.writeJSON(w, status, body)
}

func (f *Formatter) writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func (f *Formatter) writeMsgPack(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", contentTypeMsgPack)
	w.WriteHeader(status)
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Use json tags for MessagePack
	return encoder.Encode(data)
}

func (f *Formatter) writeCSV(w http.ResponseWriter, status int, t *series.Table) error {
	w.Header().Set("Content-Type", contentTypeCSV)
	w.WriteHeader(status)
	if err := series.WriteCSV(w, t); err != nil {
		return fmt.Errorf("error writing CSV response: %w", err)
	}
	return nil
}

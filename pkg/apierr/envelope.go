package apierr

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/buger/jsonparser"
)

// Kind identifies which error envelope variant a payload matched.
type Kind int

const (
	// KindNone means no payload reached the client.
	KindNone Kind = iota
	// KindList is {"error": ["first", ...]}.
	KindList
	// KindFields is {"error": {"field": "msg" | ["msg", ...]}}.
	KindFields
	// KindText is {"error": "msg"}.
	KindText
	// KindBare is a bare field map {"field": "msg" | ["msg", ...]}.
	KindBare
	// KindUnknown is any other shape.
	KindUnknown
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindList:
		return "list"
	case KindFields:
		return "fields"
	case KindText:
		return "text"
	case KindBare:
		return "bare"
	default:
		return "unknown"
	}
}

// Field is a single field error with its messages in payload order.
type Field struct {
	Name     string
	Messages []string
}

// Envelope is a classified error payload.
type Envelope struct {
	Kind   Kind
	Text   string  // set for KindList and KindText
	Fields []Field // set for KindFields and KindBare

	attemptsLeft *int
	lockout      bool
}

const (
	errorKey        = "error"
	attemptsLeftKey = "attempts_left"
	lockoutKey      = "lockout"
)

// Parse classifies a raw JSON error body.
// A nil or blank body yields KindNone; malformed JSON yields KindUnknown.
func Parse(body []byte) Envelope {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Envelope{Kind: KindNone}
	}

	_, typ, _, err := jsonparser.Get(body)
	if err != nil || typ != jsonparser.Object {
		return Envelope{Kind: KindUnknown}
	}

	env := Envelope{Kind: KindUnknown}
	if n, err := jsonparser.GetInt(body, attemptsLeftKey); err == nil {
		left := int(n)
		env.attemptsLeft = &left
	}
	if b, err := jsonparser.GetBoolean(body, lockoutKey); err == nil {
		env.lockout = b
	}

	value, typ, _, err := jsonparser.Get(body, errorKey)
	if err != nil && typ != jsonparser.NotExist {
		return env
	}

	switch typ {
	case jsonparser.NotExist:
		if fields := objectFields(body); len(fields) > 0 {
			env.Kind = KindBare
			env.Fields = fields
		}
	case jsonparser.Array:
		if first, ok := firstElement(value); ok {
			env.Kind = KindList
			env.Text = first
		}
	case jsonparser.Object:
		if fields := objectFields(value); len(fields) > 0 {
			env.Kind = KindFields
			env.Fields = fields
		}
	case jsonparser.String:
		if s := render(value, typ); strings.TrimSpace(s) != "" {
			env.Kind = KindText
			env.Text = s
		}
	}

	return env
}

// FromValue classifies an already-decoded payload.
// Values are re-encoded with encoding/json, so map keys come out sorted.
func FromValue(v any) Envelope {
	switch p := v.(type) {
	case nil:
		return Envelope{Kind: KindNone}
	case []byte:
		return Parse(p)
	case json.RawMessage:
		return Parse(p)
	case string:
		return Envelope{Kind: KindUnknown}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Envelope{Kind: KindUnknown}
	}
	if bytes.Equal(data, []byte("null")) {
		return Envelope{Kind: KindNone}
	}
	return Parse(data)
}

// Message renders the envelope. Fallback is used for KindUnknown and is
// replaced by MsgUnexpected when empty.
func (e Envelope) Message(fallback string) string {
	if strings.TrimSpace(fallback) == "" {
		fallback = MsgUnexpected
	}

	switch e.Kind {
	case KindNone:
		return MsgConnectivity
	case KindList, KindText:
		if e.Text != "" {
			return e.Text
		}
	case KindFields, KindBare:
		if s := joinFields(e.Fields); s != "" {
			return s
		}
	}
	return fallback
}

// AttemptsLeft reports the "attempts_left" side field of a login failure.
func (e Envelope) AttemptsLeft() (int, bool) {
	if e.attemptsLeft == nil {
		return 0, false
	}
	return *e.attemptsLeft, true
}

// Lockout reports the "lockout" side field of a login failure.
func (e Envelope) Lockout() bool {
	return e.lockout
}

// Normalize parses body and renders it with the given fallback.
func Normalize(body []byte, fallback string) string {
	return Parse(body).Message(fallback)
}

// NormalizeValue classifies an already-decoded payload and renders it.
func NormalizeValue(v any, fallback string) string {
	return FromValue(v).Message(fallback)
}

func objectFields(data []byte) []Field {
	var fields []Field
	_ = jsonparser.ObjectEach(data, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			name = string(key)
		}
		msgs := messages(value, typ)
		if len(msgs) == 0 {
			return nil
		}
		fields = append(fields, Field{Name: name, Messages: msgs})
		return nil
	})
	return fields
}

func messages(value []byte, typ jsonparser.ValueType) []string {
	if typ != jsonparser.Array {
		if s := render(value, typ); s != "" {
			return []string{s}
		}
		return nil
	}

	var out []string
	_, _ = jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, err error) {
		if err != nil {
			return
		}
		if s := render(v, t); s != "" {
			out = append(out, s)
		}
	})
	return out
}

func firstElement(value []byte) (string, bool) {
	var (
		first string
		seen  bool
	)
	_, _ = jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, err error) {
		if seen || err != nil {
			return
		}
		seen = true
		first = render(v, t)
	})
	return first, seen && first != ""
}

func render(value []byte, typ jsonparser.ValueType) string {
	switch typ {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return string(value)
		}
		return s
	case jsonparser.Number, jsonparser.Boolean:
		return string(value)
	case jsonparser.Object, jsonparser.Array:
		var buf bytes.Buffer
		if err := json.Compact(&buf, value); err != nil {
			return string(value)
		}
		return buf.String()
	default:
		return ""
	}
}

func joinFields(fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f.Messages) == 0 {
			continue
		}
		parts = append(parts, f.Name+": "+strings.Join(f.Messages, ", "))
	}
	return strings.Join(parts, "; ")
}

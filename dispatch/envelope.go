package dispatch

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Params is the request parameter bag. Accessors tolerate string-typed
// scalars because older UI builds send everything as strings.
type Params map[string]any

func (p Params) Raw(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

func (p Params) Int(key string) (int, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}

func (p Params) Bool(key string) (bool, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, false
		}
		return parsed, true
	case float64:
		return b != 0, true
	}
	return false, false
}

func (p Params) Decimal(key string) (decimal.Decimal, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return decimal.Zero, false
	}
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero, false
		}
		return parsed, true
	case json.Number:
		parsed, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, false
		}
		return parsed, true
	}
	return decimal.Zero, false
}

const dateLayout = "2006-01-02"

func (p Params) Date(key string) (time.Time, bool) {
	s, ok := p.String(key)
	if !ok || s == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(dateLayout, s)
	if err != nil {
		// older UI builds sent full timestamps
		parsed, err = time.Parse("2006-01-02T15:04:05", s)
		if err != nil {
			return time.Time{}, false
		}
	}
	return parsed, true
}

func (p Params) IntSlice(key string) ([]int, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, false
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	result := make([]int, 0, len(raw))
	for _, item := range raw {
		switch n := item.(type) {
		case float64:
			result = append(result, int(n))
		case string:
			i, err := strconv.Atoi(strings.TrimSpace(n))
			if err != nil {
				return nil, false
			}
			result = append(result, i)
		default:
			return nil, false
		}
	}
	return result, true
}

// Bind decodes the whole bag into a typed input struct via re-marshal.
func (p Params) Bind(dest any) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// BindKey decodes a single nested value into dest.
func (p Params) BindKey(key string, dest any) error {
	v, ok := p[key]
	if !ok {
		return fmt.Errorf("parameter %s is required", key)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Request is the wire envelope. The mode integer selects the operation.
type Request struct {
	Mode       int    `json:"mode"`
	Parameters Params `json:"parameters"`
}

// Response carries the fixed Status/Message pair plus extra fields
// flattened to the top level in insertion order (data, table1, table2,
// New<X>ID, isValid, ...).
type Response struct {
	Status  int
	Message string

	extraKeys   []string
	extraValues map[string]any
}

const (
	StatusFailure = 0
	StatusSuccess = 1
)

func OK() *Response {
	return &Response{Status: StatusSuccess, Message: "Success"}
}

func Fail(message string) *Response {
	return &Response{Status: StatusFailure, Message: message}
}

func (r *Response) WithField(key string, value any) *Response {
	if r.extraValues == nil {
		r.extraValues = map[string]any{}
	}
	if _, exists := r.extraValues[key]; !exists {
		r.extraKeys = append(r.extraKeys, key)
	}
	r.extraValues[key] = value
	return r
}

func (r *Response) WithData(value any) *Response {
	return r.WithField("data", value)
}

func (r *Response) WithTable1(value any) *Response {
	return r.WithField("table1", value)
}

func (r *Response) WithTable2(value any) *Response {
	return r.WithField("table2", value)
}

// WithNewID emits the New<Entity>ID identity field, e.g. NewReceiptID.
func (r *Response) WithNewID(entity string, id int) *Response {
	return r.WithField("New"+entity+"ID", id)
}

// Field reads back a flattened extra, mostly for clients and tests.
func (r *Response) Field(key string) (any, bool) {
	v, ok := r.extraValues[key]
	return v, ok
}

// DecodeField re-marshals one extra into a typed destination.
func (r *Response) DecodeField(key string, dest any) error {
	v, ok := r.extraValues[key]
	if !ok {
		return fmt.Errorf("response has no %s field", key)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (r *Response) HasField(key string) bool {
	_, ok := r.extraValues[key]
	return ok
}

func (r Response) MarshalJSON() ([]byte, error) {
	var buf strings.Builder
	buf.WriteString(`{"Status":`)
	buf.WriteString(strconv.Itoa(r.Status))
	buf.WriteString(`,"Message":`)
	message, err := json.Marshal(r.Message)
	if err != nil {
		return nil, err
	}
	buf.Write(message)
	for _, key := range r.extraKeys {
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		encodedValue, err := json.Marshal(r.extraValues[key])
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return []byte(buf.String()), nil
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	if raw, ok := all["Status"]; ok {
		if err := json.Unmarshal(raw, &r.Status); err != nil {
			return err
		}
		delete(all, "Status")
	}
	if raw, ok := all["Message"]; ok {
		if err := json.Unmarshal(raw, &r.Message); err != nil {
			return err
		}
		delete(all, "Message")
	}
	r.extraKeys = nil
	r.extraValues = map[string]any{}
	// decode order is not preserved across the wire; stable key order is a
	// marshalling property only
	for key, raw := range all {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		r.extraKeys = append(r.extraKeys, key)
		r.extraValues[key] = v
	}
	return nil
}

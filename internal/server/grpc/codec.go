package grpc

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
	"google.golang.org/protobuf/types/known/structpb"
)

// request wraps an incoming Struct with typed accessors. Missing fields
// read as zero values; has tells them apart from explicit zeros.
type request struct {
	fields map[string]*structpb.Value
}

func newRequest(in *structpb.Struct) request {
	return request{fields: in.GetFields()}
}

func (r request) has(key string) bool {
	_, ok := r.fields[key]
	return ok
}

func (r request) isNull(key string) bool {
	v, ok := r.fields[key]
	if !ok {
		return false
	}
	_, null := v.GetKind().(*structpb.Value_NullValue)
	return null
}

func (r request) str(key string) string {
	return r.fields[key].GetStringValue()
}

func (r request) boolean(key string) bool {
	return r.fields[key].GetBoolValue()
}

// maxExactInt is the largest magnitude a JSON number carries without
// losing integer precision.
const maxExactInt = 1 << 53

func (r request) integer(key string) (int, error) {
	v, ok := r.fields[key]
	if !ok {
		return 0, nil
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum || math.Abs(n.NumberValue) > maxExactInt || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, fmt.Errorf("%w: %s must be an integer", common.ErrorValidation, key)
	}
	return int(n.NumberValue), nil
}

func (r request) strings(key string) ([]string, error) {
	v, ok := r.fields[key]
	if !ok {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: %s must be a list of strings", common.ErrorValidation, key)
	}
	out := make([]string, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		s, isStr := item.GetKind().(*structpb.Value_StringValue)
		if !isStr {
			return nil, fmt.Errorf("%w: %s must be a list of strings", common.ErrorValidation, key)
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}

// timestamp parses an RFC 3339 field. Absent and null both yield nil.
func (r request) timestamp(key string) (*time.Time, error) {
	if !r.has(key) || r.isNull(key) {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, r.str(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an RFC 3339 timestamp", common.ErrorValidation, key)
	}
	t = t.UTC()
	return &t, nil
}

func (r request) bytes(key string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(r.str(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be base64", common.ErrorValidation, key)
	}
	return b, nil
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func entryMap(e *models.Entry) map[string]any {
	tags := make([]any, 0, len(e.Tags))
	for _, t := range e.Tags {
		tags = append(tags, t)
	}
	m := map[string]any{
		"id":               e.ID,
		"owner_id":         e.OwnerID,
		"title":            e.Title,
		"content":          e.Content,
		"category":         string(e.Category),
		"classification":   string(e.Classification),
		"tags":             tags,
		"is_sensitive":     e.IsSensitive,
		"expiration_date":  formatTime(e.ExpirationDate),
		"created_at":       formatTime(&e.CreatedAt),
		"updated_at":       formatTime(&e.UpdatedAt),
		"last_accessed_at": formatTime(e.LastAccessedAt),
		"file":             nil,
	}
	if e.File != nil {
		m["file"] = fileMap(e.File)
	}
	return m
}

func fileMap(f *models.FileRef) map[string]any {
	return map[string]any{
		"key":          f.Key,
		"name":         f.Name,
		"content_type": f.ContentType,
		"size":         f.Size,
	}
}

// jsonValue converts a JSON-tagged value into its generic form for structpb.
func jsonValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func reply(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("%w: encode response: %v", common.ErrorInternal, err)
	}
	return s, nil
}

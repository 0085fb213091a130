package parse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Reserved object fields.
const (
	FieldObjectID  = "objectId"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldClassName = "className"
)

// Object is a generic stored object.
type Object struct {
	ClassName string
	ObjectID  string
	CreatedAt time.Time
	UpdatedAt time.Time
	Fields    map[string]Value
}

// NewObject creates an unsaved object
func NewObject(className string) *Object {
	return &Object{
		ClassName: className,
		Fields:    make(map[string]Value),
	}
}

// Get returns the value of a custom field
func (o *Object) Get(field string) (Value, bool) {
	v, ok := o.Fields[field]
	return v, ok
}

// Set sets a custom field
func (o *Object) Set(field string, v Value) {
	if o.Fields == nil {
		o.Fields = make(map[string]Value)
	}
	o.Fields[field] = v
}

// Pointer returns a pointer to the object
func (o *Object) Pointer() Pointer {
	return Pointer{ClassName: o.ClassName, ObjectID: o.ObjectID}
}

// MarshalJSON implements json.Marshaler
func (o Object) MarshalJSON() ([]byte, error) {
	m := make(map[string]Value, len(o.Fields)+3)
	for k, v := range o.Fields {
		m[k] = v
	}
	if o.ObjectID != "" {
		m[FieldObjectID] = String(o.ObjectID)
	}
	if !o.CreatedAt.IsZero() {
		m[FieldCreatedAt] = String(o.CreatedAt.UTC().Format(isoLayout))
	}
	if !o.UpdatedAt.IsZero() {
		m[FieldUpdatedAt] = String(o.UpdatedAt.UTC().Format(isoLayout))
	}
	return marshalObject(m)
}

// UnmarshalJSON implements json.Unmarshaler
func (o *Object) UnmarshalJSON(data []byte) error {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	fields, ok := v.AsObject()
	if !ok {
		return fmt.Errorf("expected object, got %s", v.Type())
	}

	out := Object{ClassName: o.ClassName, Fields: make(map[string]Value, len(fields))}
	for k, fv := range fields {
		switch k {
		case FieldObjectID:
			out.ObjectID, _ = fv.AsString()
		case FieldCreatedAt, FieldUpdatedAt:
			t, err := fieldTime(fv)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			if k == FieldCreatedAt {
				out.CreatedAt = t
			} else {
				out.UpdatedAt = t
			}
		case FieldClassName:
			if s, ok := fv.AsString(); ok {
				out.ClassName = s
			}
		default:
			out.Fields[k] = fv
		}
	}
	*o = out
	return nil
}

func fieldTime(v Value) (time.Time, error) {
	switch v.Type() {
	case TypeString:
		return parseTimestamp(v.str)
	case TypeDate:
		return v.date, nil
	case TypeNull:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("unexpected %s", v.Type())
}

// Decode copies the object into out, a pointer to a struct, matching fields by
// their json tag. Date values decode into time.Time or string fields.
func (o *Object) Decode(out any) error {
	input := make(map[string]any, len(o.Fields)+3)
	for k, v := range o.Fields {
		input[k] = decodeInput(v)
	}
	input[FieldObjectID] = o.ObjectID
	if !o.CreatedAt.IsZero() {
		input[FieldCreatedAt] = o.CreatedAt.Format(time.RFC3339Nano)
	}
	if !o.UpdatedAt.IsZero() {
		input[FieldUpdatedAt] = o.UpdatedAt.Format(time.RFC3339Nano)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode %s object: %w", o.ClassName, err)
	}
	return nil
}

// decodeInput converts v for mapstructure, with dates as RFC 3339 strings.
func decodeInput(v Value) any {
	switch v.Type() {
	case TypeDate:
		return v.date.Format(time.RFC3339Nano)
	case TypeArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = decodeInput(item)
		}
		return out
	case TypeObject:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = decodeInput(item)
		}
		return out
	default:
		return v.Interface()
	}
}

// CreateResult is returned when an object is created.
type CreateResult struct {
	ObjectID  string    `json:"objectId"`
	CreatedAt Timestamp `json:"createdAt"`
}

// UpdateResult is returned when an object is updated.
type UpdateResult struct {
	UpdatedAt Timestamp `json:"updatedAt"`
}

// CreateObject stores a new object in className
func (c *Client) CreateObject(ctx context.Context, className string, fields map[string]Value, opts ...CallOption) (*CreateResult, error) {
	var result CreateResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   classPath(className),
		body:   ObjectValue(fields),
		opts:   buildRequestOptions(opts),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetObject fetches an object by id
func (c *Client) GetObject(ctx context.Context, className, objectID string, opts ...CallOption) (*Object, error) {
	obj, err := Get[Object](ctx, c, NewQuery(className), objectID, opts...)
	if err != nil {
		return nil, err
	}
	if obj.ClassName == "" {
		obj.ClassName = className
	}
	return obj, nil
}

// UpdateObject sets fields on an existing object
func (c *Client) UpdateObject(ctx context.Context, className, objectID string, fields map[string]Value, opts ...CallOption) (*UpdateResult, error) {
	if objectID == "" {
		return nil, localError(KindInvalidRequest, "object id is required")
	}

	var result UpdateResult
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   objectPath(className, objectID),
		body:   ObjectValue(fields),
		opts:   buildRequestOptions(opts),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteObject removes an object
func (c *Client) DeleteObject(ctx context.Context, className, objectID string, opts ...CallOption) error {
	if objectID == "" {
		return localError(KindInvalidRequest, "object id is required")
	}

	var ignored json.RawMessage
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   objectPath(className, objectID),
		opts:   buildRequestOptions(opts),
	}, &ignored)
}

package parse

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Param is one query string parameter.
type Param struct {
	Name  string
	Value string
}

// Params is an ordered parameter list. Encode keeps the order.
type Params []Param

// Encode returns the URL encoded form, in order
func (p Params) Encode() string {
	var sb strings.Builder
	for i, param := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(param.Name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(param.Value))
	}
	return sb.String()
}

// Get returns the value of the first parameter named name
func (p Params) Get(name string) (string, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return "", false
}

func (p Params) add(name, value string) Params {
	return append(p, Param{Name: name, Value: value})
}

// Compile returns the query parameters in the order where, limit, skip,
// order, include, keys. Parameters that are not set are left out.
func (q *Query) Compile() (Params, error) {
	var params Params

	where := q.Where()
	if len(where) > 0 {
		data, err := json.Marshal(ObjectValue(where))
		if err != nil {
			return nil, &Error{
				Kind:    KindInvalidQuery,
				Origin:  OriginLocal,
				Message: "failed to encode where",
				Err:     err,
			}
		}
		params = params.add("where", string(data))
	}
	if q.limit != nil {
		params = params.add("limit", strconv.Itoa(*q.limit))
	}
	if q.skip != nil {
		params = params.add("skip", strconv.Itoa(*q.skip))
	}
	if q.order != "" {
		params = params.add("order", q.order)
	}
	params = append(params, q.projection()...)
	return params, nil
}

// projection compiles include and keys, the only parameters a single
// object fetch honours.
func (q *Query) projection() Params {
	var params Params
	if len(q.include) > 0 {
		params = params.add("include", strings.Join(sortedSet(q.include), ","))
	}
	if len(q.keys) > 0 {
		params = params.add("keys", strings.Join(sortedSet(q.keys), ","))
	}
	return params
}

// compileCount compiles the count form: limit forced to 0 plus count=1.
func (q *Query) compileCount() (Params, error) {
	params, err := q.Clone().Limit(0).Compile()
	if err != nil {
		return nil, err
	}
	return params.add("count", "1"), nil
}

// DistinctPipeline returns the aggregation pipeline used to list the distinct
// values of field: a $match stage when the query has constraints, then a
// $group stage on the field.
func (q *Query) DistinctPipeline(field string) []Value {
	var pipeline []Value
	if where := q.Where(); len(where) > 0 {
		pipeline = append(pipeline, ObjectValue(map[string]Value{"$match": ObjectValue(where)}))
	}
	pipeline = append(pipeline, ObjectValue(map[string]Value{
		"$group": ObjectValue(map[string]Value{"_id": String("$" + field)}),
	}))
	return pipeline
}

// compilePipeline encodes pipeline as the single pipeline parameter.
func compilePipeline(pipeline []Value) (Params, error) {
	data, err := json.Marshal(Array(pipeline...))
	if err != nil {
		return nil, &Error{
			Kind:    KindInvalidQuery,
			Origin:  OriginLocal,
			Message: fmt.Sprintf("failed to encode pipeline: %v", err),
			Err:     err,
		}
	}
	return Params{{Name: "pipeline", Value: string(data)}}, nil
}

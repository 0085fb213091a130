package parse

import (
	"regexp"
	"sort"
)

// Query accumulates constraints against one class.
//
// Builder methods mutate the receiver and return it so calls can be chained.
// Use Clone before deriving a variant from a shared Query. Compiling a Query
// never changes it.
type Query struct {
	className    string
	where        map[string]Value
	relatedTo    *relatedTo
	limit        *int
	skip         *int
	order        string
	include      map[string]struct{}
	keys         map[string]struct{}
	useMasterKey bool
}

type relatedTo struct {
	object Pointer
	key    string
}

// NewQuery creates an empty query against className
func NewQuery(className string) *Query {
	return &Query{
		className: className,
		where:     make(map[string]Value),
		include:   make(map[string]struct{}),
		keys:      make(map[string]struct{}),
	}
}

// ClassName returns the class the query targets
func (q *Query) ClassName() string {
	return q.className
}

// Clone returns a deep copy of the query
func (q *Query) Clone() *Query {
	c := NewQuery(q.className)
	for k, v := range q.where {
		c.where[k] = v
	}
	if q.relatedTo != nil {
		r := *q.relatedTo
		c.relatedTo = &r
	}
	if q.limit != nil {
		n := *q.limit
		c.limit = &n
	}
	if q.skip != nil {
		n := *q.skip
		c.skip = &n
	}
	c.order = q.order
	for k := range q.include {
		c.include[k] = struct{}{}
	}
	for k := range q.keys {
		c.keys[k] = struct{}{}
	}
	c.useMasterKey = q.useMasterKey
	return c
}

func (q *Query) setOperator(field, op string, v Value) *Query {
	q.where[field] = ObjectValue(map[string]Value{op: v})
	return q
}

// EqualTo requires field to equal v
func (q *Query) EqualTo(field string, v Value) *Query {
	q.where[field] = v
	return q
}

// NotEqualTo requires field to differ from v
func (q *Query) NotEqualTo(field string, v Value) *Query {
	return q.setOperator(field, "$ne", v)
}

// GreaterThan requires field to be greater than v
func (q *Query) GreaterThan(field string, v Value) *Query {
	return q.setOperator(field, "$gt", v)
}

// GreaterThanOrEqualTo requires field to be at least v
func (q *Query) GreaterThanOrEqualTo(field string, v Value) *Query {
	return q.setOperator(field, "$gte", v)
}

// LessThan requires field to be less than v
func (q *Query) LessThan(field string, v Value) *Query {
	return q.setOperator(field, "$lt", v)
}

// LessThanOrEqualTo requires field to be at most v
func (q *Query) LessThanOrEqualTo(field string, v Value) *Query {
	return q.setOperator(field, "$lte", v)
}

// ContainedIn requires field to be one of values
func (q *Query) ContainedIn(field string, values ...Value) *Query {
	return q.setOperator(field, "$in", Array(values...))
}

// NotContainedIn requires field to be none of values
func (q *Query) NotContainedIn(field string, values ...Value) *Query {
	return q.setOperator(field, "$nin", Array(values...))
}

// ContainsAll requires the array field to contain every one of values.
// An empty list is sent as is; how the server treats it is up to the server.
func (q *Query) ContainsAll(field string, values ...Value) *Query {
	return q.setOperator(field, "$all", Array(values...))
}

// Exists requires field to be set
func (q *Query) Exists(field string) *Query {
	return q.setOperator(field, "$exists", Bool(true))
}

// DoesNotExist requires field to be unset
func (q *Query) DoesNotExist(field string) *Query {
	return q.setOperator(field, "$exists", Bool(false))
}

// MatchesRegex requires field to match pattern. modifiers may be empty.
func (q *Query) MatchesRegex(field, pattern, modifiers string) *Query {
	m := map[string]Value{"$regex": String(pattern)}
	if modifiers != "" {
		m["$options"] = String(modifiers)
	}
	q.where[field] = ObjectValue(m)
	return q
}

// StartsWith requires field to start with the literal prefix
func (q *Query) StartsWith(field, prefix string) *Query {
	return q.MatchesRegex(field, "^"+regexp.QuoteMeta(prefix), "")
}

// EndsWith requires field to end with the literal suffix
func (q *Query) EndsWith(field, suffix string) *Query {
	return q.MatchesRegex(field, regexp.QuoteMeta(suffix)+"$", "")
}

// Contains requires field to contain the literal substring
func (q *Query) Contains(field, substring string) *Query {
	return q.MatchesRegex(field, ".*"+regexp.QuoteMeta(substring)+".*", "")
}

// SearchOption configures a full text search
type SearchOption func(map[string]Value)

// SearchLanguage sets the language of the search term
func SearchLanguage(lang string) SearchOption {
	return func(m map[string]Value) {
		m["$language"] = String(lang)
	}
}

// SearchCaseSensitive toggles case sensitivity
func SearchCaseSensitive(enabled bool) SearchOption {
	return func(m map[string]Value) {
		m["$caseSensitive"] = Bool(enabled)
	}
}

// SearchDiacriticSensitive toggles diacritic sensitivity
func SearchDiacriticSensitive(enabled bool) SearchOption {
	return func(m map[string]Value) {
		m["$diacriticSensitive"] = Bool(enabled)
	}
}

// Search adds a full text search on field
func (q *Query) Search(field, term string, opts ...SearchOption) *Query {
	search := map[string]Value{"$term": String(term)}
	for _, opt := range opts {
		opt(search)
	}
	q.where[field] = ObjectValue(map[string]Value{
		"$text": ObjectValue(map[string]Value{"$search": ObjectValue(search)}),
	})
	return q
}

// RelatedTo restricts results to objects in the relation key of object.
// When set, it replaces every other constraint in the compiled query.
func (q *Query) RelatedTo(object Pointer, key string) *Query {
	q.relatedTo = &relatedTo{object: object, key: key}
	return q
}

// Limit sets the maximum number of results
func (q *Query) Limit(n int) *Query {
	q.limit = &n
	return q
}

// Skip sets the number of results to skip
func (q *Query) Skip(n int) *Query {
	q.skip = &n
	return q
}

// Order sets the raw order string, e.g. "score,-createdAt"
func (q *Query) Order(order string) *Query {
	q.order = order
	return q
}

// OrderByAscending replaces the order with field ascending
func (q *Query) OrderByAscending(field string) *Query {
	q.order = field
	return q
}

// OrderByDescending replaces the order with field descending
func (q *Query) OrderByDescending(field string) *Query {
	q.order = "-" + field
	return q
}

// AddAscendingOrder appends field ascending to the order
func (q *Query) AddAscendingOrder(field string) *Query {
	return q.appendOrder(field)
}

// AddDescendingOrder appends field descending to the order
func (q *Query) AddDescendingOrder(field string) *Query {
	return q.appendOrder("-" + field)
}

func (q *Query) appendOrder(term string) *Query {
	if q.order == "" {
		q.order = term
	} else {
		q.order += "," + term
	}
	return q
}

// Include adds pointer fields to fetch along with the results. Empty names
// are ignored.
func (q *Query) Include(fields ...string) *Query {
	for _, f := range fields {
		if f != "" {
			q.include[f] = struct{}{}
		}
	}
	return q
}

// Select restricts the fields returned. Empty names are ignored.
func (q *Query) Select(fields ...string) *Query {
	for _, f := range fields {
		if f != "" {
			q.keys[f] = struct{}{}
		}
	}
	return q
}

// UseMasterKey makes the query run with the master key
func (q *Query) UseMasterKey(enabled bool) *Query {
	q.useMasterKey = enabled
	return q
}

// Where returns the where document the query compiles to. The result is a
// copy; changing it does not affect the query.
func (q *Query) Where() map[string]Value {
	if q.relatedTo != nil {
		return map[string]Value{
			"$relatedTo": ObjectValue(map[string]Value{
				"object": PointerValue(q.relatedTo.object),
				"key":    String(q.relatedTo.key),
			}),
		}
	}
	out := make(map[string]Value, len(q.where))
	for k, v := range q.where {
		out[k] = v
	}
	return out
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

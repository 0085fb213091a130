package filter

import (
	"maps"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/parsekit/parse"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	extra      map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[CompiledFilter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.customFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		customFuncs: make(map[string]any),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements CachingCompiler for expr-based filters
type exprCompiler struct {
	customFuncs map[string]any
	cache       *lruCache[CompiledFilter]
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Object fields are only known at run time, so they compile as undefined
	// variables. Helpers are declared up front so their signatures are checked.
	env := createHelperFunctions()
	addObjectFunctions(env, parse.Object{})
	maps.Copy(env, c.customFuncs)

	program, err := expr.Compile(expression,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		extra:      c.customFuncs,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate evaluates the filter against an object. Objects that fail to
// evaluate, for example because a field has an unexpected type, do not match.
func (f *exprFilter) Evaluate(obj parse.Object) bool {
	ok, err := f.Match(obj)
	return err == nil && ok
}

// Match evaluates the filter against an object
func (f *exprFilter) Match(obj parse.Object) (bool, error) {
	env := createRuntimeEnvironment(obj)
	maps.Copy(env, f.extra)

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			ObjectID:   obj.ObjectID,
			Err:        err,
		}
	}

	// AsBool guarantees a bool result
	return result.(bool), nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// createHelperFunctions creates the static helper functions used during compilation
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 32)
	addHelperFunctions(funcs)
	return funcs
}

// addHelperFunctions adds all helper functions to the provided map
func addHelperFunctions(env map[string]any) {
	// Date helpers
	env["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["monthsAgo"] = func(months int) time.Time {
		return time.Now().AddDate(0, -months, 0)
	}
	env["yearsAgo"] = func(years int) time.Time {
		return time.Now().AddDate(-years, 0, 0)
	}
	env["parseDate"] = func(dateStr string) time.Time {
		t, _ := dateparse.ParseIn(dateStr, time.UTC)
		return t
	}
	// Case-insensitive string helpers. contains, startsWith and endsWith are
	// expr operators, so these use their own names.
	env["icontains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["istartsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["iendsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	// Current time
	env["now"] = time.Now
}

// addObjectFunctions adds helpers bound to a single object
func addObjectFunctions(env map[string]any, obj parse.Object) {
	env["has"] = createHasFunc(obj)
	env["get"] = createGetFunc(obj)
	env["pointerId"] = createPointerIDFunc(obj)
}

// createRuntimeEnvironment creates the runtime environment for filter
// evaluation. Custom fields are exposed by name; the built-in fields and the
// helpers take precedence over custom fields of the same name.
func createRuntimeEnvironment(obj parse.Object) map[string]any {
	env := make(map[string]any, len(obj.Fields)+24)

	for name, value := range obj.Fields {
		env[name] = value.Interface()
	}

	env[parse.FieldObjectID] = obj.ObjectID
	env[parse.FieldClassName] = obj.ClassName
	env[parse.FieldCreatedAt] = obj.CreatedAt
	env[parse.FieldUpdatedAt] = obj.UpdatedAt

	addHelperFunctions(env)
	addObjectFunctions(env, obj)

	return env
}

// Helper factory functions bound to one object

func createHasFunc(obj parse.Object) func(string) bool {
	return func(field string) bool {
		v, ok := obj.Fields[field]
		return ok && !v.IsNull()
	}
}

func createGetFunc(obj parse.Object) func(string) any {
	return func(field string) any {
		if v, ok := obj.Fields[field]; ok {
			return v.Interface()
		}
		return nil
	}
}

func createPointerIDFunc(obj parse.Object) func(string) string {
	return func(field string) string {
		if v, ok := obj.Fields[field]; ok {
			if p, ok := v.AsPointer(); ok {
				return p.ObjectID
			}
		}
		return ""
	}
}

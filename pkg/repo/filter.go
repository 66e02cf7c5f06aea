package repo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

type Operator string

const (
	OpEquals         Operator = "equals"
	OpContains       Operator = "contains"
	OpStartsWith     Operator = "startsWith"
	OpEndsWith       Operator = "endsWith"
	OpBetween        Operator = "between"
	OpNotEqual       Operator = "notEqual"
	OpDoesNotContain Operator = "doesNotContain"
	OpLessThan       Operator = "lessThan"
	OpGreaterThan    Operator = "greaterThan"
)

// Filter is a (column, operator, value[, value2]) tuple. Value2 is only read
// by OpBetween; nil means absent.
type Filter struct {
	Column   string
	Operator Operator
	Value    any
	Value2   any
}

// FilterMode decides what happens to operators the compiler does not know.
type FilterMode int

const (
	// FilterLenient drops unknown operators by compiling them to "".
	FilterLenient FilterMode = iota
	// FilterStrict fails with ErrUnknownOperator.
	FilterStrict
)

func ParseFilterMode(s string) (FilterMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return FilterLenient, nil
	case "strict":
		return FilterStrict, nil
	default:
		return FilterLenient, errors.Errorf("invalid filter mode %q (expected lenient|strict)", s)
	}
}

// ParseFilter builds a Filter from a positional tuple such as
// ["age", "between", 18, 30].
func ParseFilter(tuple []any) (Filter, error) {
	if len(tuple) < 3 || len(tuple) > 4 {
		return Filter{}, errors.Wrapf(ErrInvalidFilter, "expected 3 or 4 elements, got %d", len(tuple))
	}
	col, ok := tuple[0].(string)
	if !ok || strings.TrimSpace(col) == "" {
		return Filter{}, errors.Wrap(ErrInvalidFilter, "column must be a non-empty string")
	}
	op, ok := tuple[1].(string)
	if !ok {
		return Filter{}, errors.Wrap(ErrInvalidFilter, "operator must be a string")
	}
	f := Filter{Column: col, Operator: Operator(op), Value: tuple[2]}
	if len(tuple) == 4 {
		f.Value2 = tuple[3]
	}
	return f, nil
}

// ParseFilterExpression decodes a JSON-encoded filter tuple. Numbers are kept
// as json.Number so they compile unquoted and unrounded.
func ParseFilterExpression(expr string) (Filter, error) {
	dec := json.NewDecoder(strings.NewReader(expr))
	dec.UseNumber()
	var tuple []any
	if err := dec.Decode(&tuple); err != nil {
		return Filter{}, errors.Wrapf(ErrInvalidFilter, "decode %q: %v", expr, err)
	}
	return ParseFilter(tuple)
}

// FilterCompiler translates filters into SQL predicates.
type FilterCompiler struct {
	Mode FilterMode
}

// CompileFilter compiles f in lenient mode.
func CompileFilter(f Filter) (string, error) {
	return FilterCompiler{}.Compile(f)
}

// Compile renders f as a predicate with the values inlined. Numbers are
// emitted bare; everything else is wrapped in single quotes as-is, quotes
// included. The result is for display and fixtures only.
func (c FilterCompiler) Compile(f Filter) (string, error) {
	col := f.Column
	switch f.Operator {
	case OpEquals:
		return fmt.Sprintf("%s = %s", col, literal(f.Value)), nil
	case OpContains:
		return fmt.Sprintf("%s LIKE '%%%s%%'", col, raw(f.Value)), nil
	case OpStartsWith:
		return fmt.Sprintf("%s LIKE '%s%%'", col, raw(f.Value)), nil
	case OpEndsWith:
		return fmt.Sprintf("%s LIKE '%%%s'", col, raw(f.Value)), nil
	case OpBetween:
		if f.Value2 == nil {
			return "", errors.Wrapf(ErrMissingBetweenBound, "column %s", col)
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, literal(f.Value), literal(f.Value2)), nil
	case OpNotEqual:
		return fmt.Sprintf("%s <> %s", col, literal(f.Value)), nil
	case OpDoesNotContain:
		return fmt.Sprintf("%s NOT LIKE '%%%s%%'", col, raw(f.Value)), nil
	case OpLessThan:
		return fmt.Sprintf("%s < %s", col, literal(f.Value)), nil
	case OpGreaterThan:
		return fmt.Sprintf("%s > %s", col, literal(f.Value)), nil
	}
	return c.unknown(f)
}

// CompileAll compiles every filter and joins the non-empty predicates with AND.
func (c FilterCompiler) CompileAll(filters []Filter) (string, error) {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		p, err := c.Compile(f)
		if err != nil {
			return "", err
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " AND "), nil
}

// Bind renders f with positional placeholders starting at $argIndex and
// returns the matching arguments. The column is not escaped: callers map
// user-facing field names onto known columns first.
func (c FilterCompiler) Bind(f Filter, argIndex int) (string, []any, error) {
	col := f.Column
	ph := func(i int) string { return "$" + strconv.Itoa(argIndex+i) }
	switch f.Operator {
	case OpEquals:
		return fmt.Sprintf("%s = %s", col, ph(0)), []any{bindValue(f.Value)}, nil
	case OpContains:
		return fmt.Sprintf("%s LIKE %s", col, ph(0)), []any{"%" + raw(f.Value) + "%"}, nil
	case OpStartsWith:
		return fmt.Sprintf("%s LIKE %s", col, ph(0)), []any{raw(f.Value) + "%"}, nil
	case OpEndsWith:
		return fmt.Sprintf("%s LIKE %s", col, ph(0)), []any{"%" + raw(f.Value)}, nil
	case OpBetween:
		if f.Value2 == nil {
			return "", nil, errors.Wrapf(ErrMissingBetweenBound, "column %s", col)
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, ph(0), ph(1)), []any{bindValue(f.Value), bindValue(f.Value2)}, nil
	case OpNotEqual:
		return fmt.Sprintf("%s <> %s", col, ph(0)), []any{bindValue(f.Value)}, nil
	case OpDoesNotContain:
		return fmt.Sprintf("%s NOT LIKE %s", col, ph(0)), []any{"%" + raw(f.Value) + "%"}, nil
	case OpLessThan:
		return fmt.Sprintf("%s < %s", col, ph(0)), []any{bindValue(f.Value)}, nil
	case OpGreaterThan:
		return fmt.Sprintf("%s > %s", col, ph(0)), []any{bindValue(f.Value)}, nil
	}
	s, err := c.unknown(f)
	return s, nil, err
}

func (c FilterCompiler) unknown(f Filter) (string, error) {
	if c.Mode == FilterStrict {
		return "", errors.Wrapf(ErrUnknownOperator, "%q", f.Operator)
	}
	return "", nil
}

func literal(v any) string {
	if s, ok := numeric(v); ok {
		return s
	}
	return "'" + raw(v) + "'"
}

func raw(v any) string {
	if s, ok := numeric(v); ok {
		return s
	}
	return fmt.Sprint(v)
}

// bindValue turns json.Number into a driver-friendly value.
func bindValue(v any) any {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if d, err := decimal.NewFromString(n.String()); err == nil {
			return d.String()
		}
		return n.String()
	}
	return v
}

func numeric(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case json.Number:
		return x.String(), true
	case decimal.Decimal:
		return x.String(), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float()), true
	}
	return "", false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func compactJSON(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package repo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Record is one seed row with its keys in source order. Values[i] belongs to
// Keys[i].
type Record struct {
	Keys   []string
	Values []any
}

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	for i, k := range r.Keys {
		if k == key {
			return r.Values[i], true
		}
	}
	return nil, false
}

// DecodeRecords reads a JSON array of objects, keeping each object's key order.
// Scalars decode to nil, bool, string or json.Number; nested objects and
// arrays stay as compacted json.RawMessage.
func DecodeRecords(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, ErrNotArray
	}

	var out []Record
	for dec.More() {
		rec, err := decodeObject(dec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
	}
	return out, nil
}

func decodeObject(dec *json.Decoder) (Record, error) {
	tok, err := dec.Token()
	if err != nil {
		return Record{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Record{}, ErrNotArray
	}
	var rec Record
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return Record{}, err
		}
		key, ok := kt.(string)
		if !ok {
			return Record{}, fmt.Errorf("unexpected key token %v", kt)
		}
		var rawVal json.RawMessage
		if err := dec.Decode(&rawVal); err != nil {
			return Record{}, fmt.Errorf("key %s: %w", key, err)
		}
		v, err := scalarOrRaw(rawVal)
		if err != nil {
			return Record{}, fmt.Errorf("key %s: %w", key, err)
		}
		rec.Keys = append(rec.Keys, key)
		rec.Values = append(rec.Values, v)
	}
	if _, err := dec.Token(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func scalarOrRaw(b json.RawMessage) (any, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("empty value")
	}
	switch b[0] {
	case '{', '[':
		c, err := compactJSON(b)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(c), nil
	case 'n':
		return nil, nil
	case 't':
		return true, nil
	case 'f':
		return false, nil
	case '"':
		var s string
		err := json.Unmarshal(b, &s)
		return s, err
	default:
		return json.Number(string(b)), nil
	}
}

type SeedOptions struct {
	// ValidateShape fails with ErrShapeMismatch when any record's keys differ
	// from the first record's. Off by default to match the legacy output.
	ValidateShape bool
}

// CompileSeed renders one bulk INSERT for records. The column list comes from
// the first record; every record contributes its own values in its own key
// order, so heterogeneous input yields misaligned rows unless
// opts.ValidateShape is set.
func CompileSeed(table string, records []Record, opts SeedOptions) (string, error) {
	if len(records) == 0 {
		return "", ErrEmptySeed
	}
	columns := records[0].Keys
	if opts.ValidateShape {
		for i, r := range records[1:] {
			if !sameKeys(columns, r.Keys) {
				return "", fmt.Errorf("%w: record %d has keys [%s], want [%s]",
					ErrShapeMismatch, i+1, strings.Join(r.Keys, ", "), strings.Join(columns, ", "))
			}
		}
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(pq.QuoteIdentifier(table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES\n")
	for i, r := range records {
		vals := make([]string, len(r.Values))
		for j, v := range r.Values {
			vals[j] = FormatValue(v)
		}
		sb.WriteString("(")
		sb.WriteString(strings.Join(vals, ", "))
		sb.WriteString(")")
		if i < len(records)-1 {
			sb.WriteString(",\n")
		}
	}
	sb.WriteString(";\n")
	return sb.String(), nil
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FormatValue renders v as a SQL literal:
//
//	nil, nil pointers, NaN, ±Inf   NULL (also JSON numbers out of float64 range)
//	numbers                        decimal literal
//	bool                           1 / 0
//	time.Time                      ISO-8601 UTC, quoted
//	objects, slices, raw JSON      JSON text, quoted
//	everything else                fmt text, quoted
//
// Quoted values have single quotes doubled.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "1"
		}
		return "0"
	case json.Number:
		f, err := x.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return "NULL"
		}
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return "NULL"
		}
		return d.String()
	case decimal.Decimal:
		return x.String()
	case decimal.NullDecimal:
		if !x.Valid {
			return "NULL"
		}
		return x.Decimal.String()
	case time.Time:
		return quote(isoTime(x))
	case *time.Time:
		if x == nil {
			return "NULL"
		}
		return quote(isoTime(*x))
	case json.RawMessage:
		if x == nil {
			return "NULL"
		}
		return quote(string(x))
	case string:
		return quote(x)
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
			return "NULL"
		}
		return quote(x.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "NULL"
		}
		return FormatValue(rv.Elem().Interface())
	case reflect.Bool:
		return FormatValue(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "NULL"
		}
		return formatFloat(f)
	case reflect.String:
		return quote(rv.String())
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if (rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) && rv.IsNil() {
			return "NULL"
		}
		b, err := json.Marshal(v)
		if err != nil {
			return quote(fmt.Sprint(v))
		}
		return quote(string(b))
	}
	return quote(fmt.Sprint(v))
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Supported input encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
	EncodingUTF16       = "utf-16"
)

// CSVOptions controls how raw CSV text is decoded.
type CSVOptions struct {
	// Encoding of the input bytes; empty means UTF-8.
	Encoding string
	// Comma overrides the field delimiter; zero means ','.
	Comma rune
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string, opts CSVOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f, opts)
}

// ReadCSV parses text with a header row into ordered row mappings. Every row
// whose shape does not match the header is recorded; if any are found the
// whole read fails with a *ParseError carrying the first few of them.
func ReadCSV(in io.Reader, opts CSVOptions) (*Table, error) {
	dec, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	if dec != nil {
		in = transform.NewReader(in, dec.NewDecoder())
	}
	br := stripUTF8BOM(bufio.NewReader(in))

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = false
	if opts.Comma != 0 {
		r.Comma = opts.Comma
	}

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Issues: []Issue{{Line: 1, Message: "missing header"}}, Total: 1}
		}
		return nil, &ParseError{Issues: []Issue{{Line: 1, Message: err.Error()}}, Total: 1}
	}
	b, err := newTableBuilder(header)
	if err != nil {
		return nil, &ParseError{Issues: []Issue{{Line: 1, Message: err.Error()}}, Total: 1}
	}

	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				b.issues.add(pe.StartLine, pe.Err.Error())
				continue
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := r.FieldPos(0)
		b.add(line, rec, false)
	}
	return b.table()
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingUTF8, "utf8":
		return nil, nil
	case EncodingWindows1252, "cp1252", "latin1":
		return charmap.Windows1252, nil
	case EncodingUTF16, "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %q (expected utf-8|windows-1252|utf-16)", name)
	}
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

// ValidateEncoding reports whether name is a supported input encoding.
func ValidateEncoding(name string) error {
	_, err := lookupEncoding(name)
	return err
}

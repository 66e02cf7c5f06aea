// Package fixtures reads and writes the JSON files exchanged between pipeline
// stages.
package fixtures

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"github.com/campsite-dev/campseed/modules/registration/domain"
)

var ErrInvalidFixture = errors.New("invalid fixture")

var validate = validator.New(validator.WithRequiredStructEnabled())

func LoadUsers(path string) ([]domain.User, error) {
	return load[domain.User](path)
}

// LoadCamps keeps the file order; camps may be referenced by position.
func LoadCamps(path string) ([]domain.Camp, error) {
	return load[domain.Camp](path)
}

func LoadDistricts(path string) ([]domain.District, error) {
	return load[domain.District](path)
}

func load[T any](path string) ([]T, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	items, err := Decode[T](bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrapf(err, "fixture %s", path)
	}
	return items, nil
}

// Decode reads a JSON array of T and validates every element. Unknown
// fields are ignored.
func Decode[T any](r io.Reader) ([]T, error) {
	var items []T
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	for i := range items {
		if err := validate.Struct(&items[i]); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return nil, fmt.Errorf("%w: item %d: field %s failed %q", ErrInvalidFixture, i, verrs[0].Field(), verrs[0].Tag())
			}
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidFixture, i, err)
		}
	}
	return items, nil
}

// Write encodes v as indented JSON.
func Write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteFile writes v to path, creating parent directories.
func WriteFile(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", dir)
	}
	var buf bytes.Buffer
	if err := Write(&buf, v); err != nil {
		return errors.Wrap(err, "json encode")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

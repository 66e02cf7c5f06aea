package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Field names a semantic column the pipeline looks for in an export.
type Field string

const (
	FieldDistrictName   Field = "district_name"
	FieldZones          Field = "zones"
	FieldEmail          Field = "email"
	FieldLegacyID       Field = "legacy_id"
	FieldFirstName      Field = "firstname"
	FieldLastName       Field = "lastname"
	FieldPhone          Field = "phone"
	FieldRole           Field = "role"
	FieldJoinedOn       Field = "joined_on"
	FieldUserRef        Field = "user_ref"
	FieldCampRef        Field = "camp_ref"
	FieldRegType        Field = "registration_type"
	FieldDistrict       Field = "district"
	FieldCreatedAt      Field = "created_at"
	FieldAgeGroup       Field = "age_group"
	FieldGender         Field = "gender"
	FieldPaymentRef     Field = "payment_ref"
	FieldAllocatedItems Field = "allocated_items"
	FieldCheckinAt      Field = "checkin_at"
)

// Profile maps each semantic field to its ordered header patterns (see
// DetectColumn for the pattern syntax).
type Profile map[Field][]string

// DefaultProfile returns the header aliases seen in the legacy exports.
func DefaultProfile() Profile {
	return Profile{
		FieldDistrictName:   {"district", "name"},
		FieldZones:          {"zone"},
		FieldEmail:          {"email", "e-mail"},
		FieldLegacyID:       {"=id", "legacy", "user id", "user_id"},
		FieldFirstName:      {"firstname", "first name", "first_name"},
		FieldLastName:       {"lastname", "last name", "last_name", "surname"},
		FieldPhone:          {"phone", "mobile"},
		FieldRole:           {"=role"},
		FieldJoinedOn:       {"joined", "join date", "date joined"},
		FieldUserRef:        {"=user", "user id", "user_id", "userid", "legacy"},
		FieldCampRef:        {"=camp", "camp_id", "camp id", "camp number", "camp no"},
		FieldRegType:        {"registration type", "registration_type", "=type"},
		FieldDistrict:       {"district"},
		FieldCreatedAt:      {"created", "timestamp", "registered on", "registration date"},
		FieldAgeGroup:       {"age"},
		FieldGender:         {"gender", "sex"},
		FieldPaymentRef:     {"payment", "reference"},
		FieldAllocatedItems: {"allocated", "items"},
		FieldCheckinAt:      {"checkin", "check-in", "check in"},
	}
}

// LoadProfile reads a YAML or TOML file of field -> patterns and merges it
// over DefaultProfile. Fields present in the file replace the defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	raw := map[string][]string{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &raw)
	case ".toml":
		err = toml.Unmarshal(b, &raw)
	default:
		return nil, fmt.Errorf("unsupported profile format: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", path, err)
	}
	for k, patterns := range raw {
		if len(patterns) == 0 {
			return nil, fmt.Errorf("profile %s: field %q has no patterns", path, k)
		}
		p[Field(k)] = patterns
	}
	return p, nil
}

// Resolve finds the header for a required field.
func (p Profile) Resolve(header []string, field Field) (string, error) {
	return detectColumn(string(field), header, p[field])
}

// Lookup resolves every field it can; unmatched fields are left out.
func (p Profile) Lookup(header []string, fields ...Field) Columns {
	cols := Columns{}
	for _, f := range fields {
		if col, err := p.Resolve(header, f); err == nil {
			cols[f] = col
		}
	}
	return cols
}

// Columns is a resolved field -> header mapping.
type Columns map[Field]string

// Value returns the trimmed value of field in row, or "" if the field was not
// resolved.
func (c Columns) Value(row Row, field Field) string {
	col, ok := c[field]
	if !ok {
		return ""
	}
	return strings.TrimSpace(row.Get(col))
}

// Has reports whether field was resolved.
func (c Columns) Has(field Field) bool {
	_, ok := c[field]
	return ok
}

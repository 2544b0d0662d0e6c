package contract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field limits enforced by the input form.
const (
	MinDurationMonths = 1
	MaxDurationMonths = 36

	MinAmount  = 10_000
	MaxAmount  = 10_000_000
	AmountStep = 10_000
)

// Record is one persisted insurance contract. JSON keys match the history
// file written by earlier releases so existing files load unchanged.
type Record struct {
	FullName       string        `json:"fio"`
	BirthDate      Date          `json:"birth_date"`
	PassportID     string        `json:"passport"`
	Phone          string        `json:"phone"`
	InsuranceType  InsuranceType `json:"insurance_type"`
	DurationMonths int           `json:"duration"`
	Amount         int           `json:"amount"`
	// CreationDate is stamped once at first save and never recomputed.
	CreationDate Date `json:"creation_date"`
}

// Summary returns the one-line form used by contract listings.
func (r Record) Summary() string {
	return fmt.Sprintf("%s - %s - %s", r.FullName, r.InsuranceType, r.CreationDate)
}

// InsuranceType is the kind of coverage a contract provides.
type InsuranceType string

const (
	Auto     InsuranceType = "Auto"
	Medical  InsuranceType = "Medical"
	Property InsuranceType = "Property"
	Life     InsuranceType = "Life"
	Travel   InsuranceType = "Travel"
)

// insuranceTypes is the display order; index 0 is the form default.
var insuranceTypes = []InsuranceType{Auto, Medical, Property, Life, Travel}

// legacyLabels maps the display labels stored by the desktop release.
var legacyLabels = map[string]InsuranceType{
	"Автострахование": Auto,
	"Медицинское":     Medical,
	"Недвижимость":    Property,
	"Жизнь":           Life,
	"Туризм":          Travel,
}

// InsuranceTypes returns every insurance type in display order.
func InsuranceTypes() []InsuranceType {
	out := make([]InsuranceType, len(insuranceTypes))
	copy(out, insuranceTypes)
	return out
}

// IsValid reports whether t is one of the defined insurance types.
func (t InsuranceType) IsValid() bool {
	return t.Index() >= 0
}

// Index returns the display position of t, or -1 for an unknown type.
func (t InsuranceType) Index() int {
	for i, it := range insuranceTypes {
		if it == t {
			return i
		}
	}
	return -1
}

// ParseInsuranceType accepts a type name in any case or a legacy display label.
func ParseInsuranceType(s string) (InsuranceType, error) {
	s = strings.TrimSpace(s)
	for _, it := range insuranceTypes {
		if strings.EqualFold(string(it), s) {
			return it, nil
		}
	}
	if it, ok := legacyLabels[s]; ok {
		return it, nil
	}
	return "", fmt.Errorf("unknown insurance type %q: valid types are Auto, Medical, Property, Life, Travel", s)
}

// UnmarshalJSON decodes a type name or legacy label.
func (t *InsuranceType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("insurance_type: %w", err)
	}
	it, err := ParseInsuranceType(s)
	if err != nil {
		return err
	}
	*t = it
	return nil
}

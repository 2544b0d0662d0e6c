package form

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/contractdesk/internal/contract"
)

// Field names accepted by Set.
const (
	FieldName      = "name"
	FieldBirthDate = "birth-date"
	FieldPassport  = "passport"
	FieldPhone     = "phone"
	FieldType      = "type"
	FieldMonths    = "months"
	FieldAmount    = "amount"
)

// FieldNames lists the settable fields in form order.
var FieldNames = []string{FieldName, FieldBirthDate, FieldPassport, FieldPhone, FieldType, FieldMonths, FieldAmount}

// defaultBirthDate is the initial value of the birth date input.
var defaultBirthDate = contract.NewDate(2000, time.January, 1)

// Fields is the editable state of the contract form.
type Fields struct {
	FullName       string
	BirthDate      contract.Date
	PassportID     string
	Phone          string
	InsuranceType  contract.InsuranceType
	DurationMonths int
	Amount         int
}

// ValidationError reports form input that blocks an action.
type ValidationError struct {
	Fields []string
	Msg    string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	return e.Msg + ": " + strings.Join(e.Fields, ", ")
}

// Defaults returns a freshly initialised form.
func Defaults() Fields {
	f := Fields{BirthDate: defaultBirthDate}
	Clear(&f)
	return f
}

// Clear resets every field except the birth date to its default. Storage is
// never touched.
func Clear(f *Fields) {
	f.FullName = ""
	f.PassportID = ""
	f.Phone = ""
	f.InsuranceType = contract.InsuranceTypes()[0]
	f.DurationMonths = contract.MinDurationMonths
	f.Amount = contract.MinAmount
}

// Set parses value into the named field. Range checks are left to CheckInput.
func (f *Fields) Set(name, value string) error {
	switch name {
	case FieldName:
		f.FullName = value
	case FieldPassport:
		f.PassportID = value
	case FieldPhone:
		f.Phone = value
	case FieldBirthDate:
		d, err := contract.ParseDate(value)
		if err != nil {
			return &ValidationError{Fields: []string{name}, Msg: err.Error()}
		}
		f.BirthDate = d
	case FieldType:
		it, err := contract.ParseInsuranceType(value)
		if err != nil {
			return &ValidationError{Fields: []string{name}, Msg: err.Error()}
		}
		f.InsuranceType = it
	case FieldMonths, FieldAmount:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return &ValidationError{Fields: []string{name}, Msg: fmt.Sprintf("%q is not a whole number", value)}
		}
		if name == FieldMonths {
			f.DurationMonths = n
		} else {
			f.Amount = n
		}
	default:
		return fmt.Errorf("unknown field %q: valid fields are %s", name, strings.Join(FieldNames, ", "))
	}
	return nil
}

// CheckInput enforces the input constraints of the form controls: a known
// insurance type, duration and amount within range, amount on the step.
func CheckInput(f Fields) error {
	if !f.InsuranceType.IsValid() {
		return &ValidationError{Fields: []string{FieldType}, Msg: fmt.Sprintf("unknown insurance type %q", f.InsuranceType)}
	}
	if f.DurationMonths < contract.MinDurationMonths || f.DurationMonths > contract.MaxDurationMonths {
		return &ValidationError{Fields: []string{FieldMonths}, Msg: fmt.Sprintf("duration must be between %d and %d months, got %d",
			contract.MinDurationMonths, contract.MaxDurationMonths, f.DurationMonths)}
	}
	if f.Amount < contract.MinAmount || f.Amount > contract.MaxAmount {
		return &ValidationError{Fields: []string{FieldAmount}, Msg: fmt.Sprintf("amount must be between %d and %d, got %d",
			contract.MinAmount, contract.MaxAmount, f.Amount)}
	}
	if f.Amount%contract.AmountStep != 0 {
		return &ValidationError{Fields: []string{FieldAmount}, Msg: fmt.Sprintf("amount must be a multiple of %d, got %d",
			contract.AmountStep, f.Amount)}
	}
	return nil
}

// Validate fails when any required field (name, passport, phone) is empty.
func Validate(f Fields) error {
	var missing []string
	if f.FullName == "" {
		missing = append(missing, FieldName)
	}
	if f.PassportID == "" {
		missing = append(missing, FieldPassport)
	}
	if f.Phone == "" {
		missing = append(missing, FieldPhone)
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Msg: "please fill in all required fields"}
	}
	return nil
}

// BuildRecord turns validated fields into a record created on today.
func BuildRecord(f Fields, today contract.Date) contract.Record {
	return contract.Record{
		FullName:       f.FullName,
		BirthDate:      f.BirthDate,
		PassportID:     f.PassportID,
		Phone:          f.Phone,
		InsuranceType:  f.InsuranceType,
		DurationMonths: f.DurationMonths,
		Amount:         f.Amount,
		CreationDate:   today,
	}
}

// FromRecord fills a form from a stored record.
func FromRecord(r contract.Record) Fields {
	return Fields{
		FullName:       r.FullName,
		BirthDate:      r.BirthDate,
		PassportID:     r.PassportID,
		Phone:          r.Phone,
		InsuranceType:  r.InsuranceType,
		DurationMonths: r.DurationMonths,
		Amount:         r.Amount,
	}
}

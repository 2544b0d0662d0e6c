package form

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dshills/contractdesk/internal/contract"
)

func filled() Fields {
	f := Defaults()
	f.FullName = "Ivanov I.I."
	f.PassportID = "4500 123456"
	f.Phone = "+7..."
	f.DurationMonths = 12
	f.Amount = 500000
	return f
}

func TestDefaults(t *testing.T) {
	f := Defaults()
	assert.Equal(t, "", f.FullName)
	assert.Equal(t, contract.Auto, f.InsuranceType)
	assert.Equal(t, 1, f.DurationMonths)
	assert.Equal(t, 10000, f.Amount)
	assert.False(t, f.BirthDate.IsZero())
}

func TestClear_KeepsBirthDate(t *testing.T) {
	f := filled()
	f.BirthDate = contract.NewDate(1980, time.July, 4)
	f.InsuranceType = contract.Life

	Clear(&f)

	want := Defaults()
	want.BirthDate = contract.NewDate(1980, time.July, 4)
	assert.Equal(t, want, f)
}

func TestValidate_AllFilled(t *testing.T) {
	assert.NoError(t, Validate(filled()))
}

func TestValidate_ListsEveryEmptyField(t *testing.T) {
	f := filled()
	f.FullName = ""
	f.Phone = ""

	err := Validate(f)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{FieldName, FieldPhone}, ve.Fields)
	assert.Contains(t, err.Error(), "name, phone")
}

func TestCheckInput(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*Fields)
		field string
	}{
		{"months low", func(f *Fields) { f.DurationMonths = 0 }, FieldMonths},
		{"months high", func(f *Fields) { f.DurationMonths = 37 }, FieldMonths},
		{"amount low", func(f *Fields) { f.Amount = 0 }, FieldAmount},
		{"amount high", func(f *Fields) { f.Amount = 10_010_000 }, FieldAmount},
		{"amount off step", func(f *Fields) { f.Amount = 15000 }, FieldAmount},
		{"bad type", func(f *Fields) { f.InsuranceType = "Pet" }, FieldType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := filled()
			tc.edit(&f)
			err := CheckInput(f)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, []string{tc.field}, ve.Fields)
		})
	}
	assert.NoError(t, CheckInput(filled()))
	assert.NoError(t, CheckInput(Defaults()))
}

func TestSet(t *testing.T) {
	f := Defaults()
	require.NoError(t, f.Set(FieldName, "Petrov"))
	require.NoError(t, f.Set(FieldBirthDate, "05.06.1977"))
	require.NoError(t, f.Set(FieldPassport, "1234 567890"))
	require.NoError(t, f.Set(FieldPhone, "+7 900"))
	require.NoError(t, f.Set(FieldType, "travel"))
	require.NoError(t, f.Set(FieldMonths, "6"))
	require.NoError(t, f.Set(FieldAmount, " 70000 "))

	assert.Equal(t, Fields{
		FullName:       "Petrov",
		BirthDate:      contract.NewDate(1977, time.June, 5),
		PassportID:     "1234 567890",
		Phone:          "+7 900",
		InsuranceType:  contract.Travel,
		DurationMonths: 6,
		Amount:         70000,
	}, f)
}

func TestSet_Errors(t *testing.T) {
	f := Defaults()
	var ve *ValidationError
	assert.ErrorAs(t, f.Set(FieldMonths, "twelve"), &ve)
	assert.ErrorAs(t, f.Set(FieldBirthDate, "2000-01-01"), &ve)
	assert.ErrorAs(t, f.Set(FieldType, "Pet"), &ve)
	assert.Error(t, f.Set("colour", "red"))
}

func TestBuildRecordAndFromRecord(t *testing.T) {
	f := filled()
	today := contract.NewDate(2026, time.October, 15)

	r := BuildRecord(f, today)
	assert.Equal(t, today, r.CreationDate)
	assert.Equal(t, f, FromRecord(r))
}

func TestProperty_ValidateIffRequiredEmpty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maybe := func(label string) string {
			return rapid.OneOf(rapid.Just(""), rapid.StringN(1, 20, -1)).Draw(rt, label)
		}
		f := Fields{
			FullName:       maybe("name"),
			PassportID:     maybe("passport"),
			Phone:          maybe("phone"),
			InsuranceType:  rapid.SampledFrom(contract.InsuranceTypes()).Draw(rt, "type"),
			DurationMonths: rapid.IntRange(contract.MinDurationMonths, contract.MaxDurationMonths).Draw(rt, "months"),
			Amount:         rapid.IntRange(1, 1000).Draw(rt, "amount") * contract.AmountStep,
		}
		anyEmpty := f.FullName == "" || f.PassportID == "" || f.Phone == ""
		err := Validate(f)
		if anyEmpty != (err != nil) {
			rt.Fatalf("Validate(%+v) = %v, anyEmpty=%v", f, err, anyEmpty)
		}
	})
}

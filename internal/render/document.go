package render

import (
	"fmt"

	"github.com/dshills/contractdesk/internal/contract"
)

// Fixed document text.
const (
	docTitle      = "INSURANCE CONTRACT"
	termsHeading  = "General terms"
	signatureLine = "_________________        __________________"
	signatureText = "Client signature          Company signature"
)

var terms = []string{
	"1. This contract sets out the insurance terms in accordance with applicable law.",
	"2. The client must comply with all conditions stated in this contract.",
	"3. Insurance payments are made according to the insurance rules.",
}

// Stamp placement on the page, in millimetres.
const (
	stampX     = 100.0
	stampY     = 120.0
	stampWidth = 40.0
)

type row struct {
	Label string
	Value string
}

// document is the format-independent content of a contract printout.
type document struct {
	Title        string
	Rows         []row
	TermsHeading string
	Terms        []string
	Signatures   [2]string
	Created      string
}

func layout(rec *contract.Record) document {
	return document{
		Title: docTitle,
		Rows: []row{
			{"Client full name", rec.FullName},
			{"Date of birth", rec.BirthDate.String()},
			{"Passport", rec.PassportID},
			{"Phone", rec.Phone},
			{"Insurance type", string(rec.InsuranceType)},
			{"Insurance term", fmt.Sprintf("%d months", rec.DurationMonths)},
			{"Sum insured", fmt.Sprintf("%d RUB", rec.Amount)},
		},
		TermsHeading: termsHeading,
		Terms:        terms,
		Signatures:   [2]string{signatureLine, signatureText},
		Created:      "Created: " + rec.CreationDate.String(),
	}
}

package render

import (
	"encoding/json"

	"github.com/dshills/contractdesk/internal/contract"
)

type jsonRenderer struct{}

func (r *jsonRenderer) Ext() string { return ".json" }

func (r *jsonRenderer) Render(rec *contract.Record) ([]byte, error) {
	return json.MarshalIndent(rec, "", "  ")
}

package exporter

import (
	"bytes"
	"encoding/json"

	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// documentIndent is the indentation used for the published artifact.
const documentIndent = "    "

// EncodeDocument renders doc in its canonical form: four-space indent, fields
// in declaration order, category keys sorted, trailing newline.
func EncodeDocument(doc domain.KPIDocument) ([]byte, error) {
	if doc.SalesByCategory == nil {
		doc.SalesByCategory = map[string]float64{}
	}
	doc.GeneratedAt = doc.GeneratedAt.UTC()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", documentIndent)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.NewParsingError("encode kpi document", err)
	}
	return buf.Bytes(), nil
}

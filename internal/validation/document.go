package validation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

//go:embed schema/kpi_document.schema.json
var kpiDocumentSchema []byte

const kpiSchemaURL = "kpi_document.schema.json"

// DocumentValidator checks serialized KPI documents against the published schema.
// A compiled validator is safe for concurrent use.
type DocumentValidator struct {
	schema *jsonschema.Schema
}

// NewDocumentValidator compiles the embedded KPI document schema.
func NewDocumentValidator() (*DocumentValidator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if err := compiler.AddResource(kpiSchemaURL, bytes.NewReader(kpiDocumentSchema)); err != nil {
		return nil, errors.NewConfigError("add kpi schema", err)
	}
	schema, err := compiler.Compile(kpiSchemaURL)
	if err != nil {
		return nil, errors.NewConfigError("compile kpi schema", err)
	}
	return &DocumentValidator{schema: schema}, nil
}

// MustNewDocumentValidator is like NewDocumentValidator but panics on error.
func MustNewDocumentValidator() *DocumentValidator {
	v, err := NewDocumentValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate reports whether data is well-formed JSON matching the KPI schema.
// Malformed JSON yields a PARSING error, a schema mismatch a VALIDATION error.
func (v *DocumentValidator) Validate(data []byte) error {
	_, err := v.decode(data)
	return err
}

// Decode validates data and unmarshals it into a KPIDocument.
func (v *DocumentValidator) Decode(data []byte) (domain.KPIDocument, error) {
	var doc domain.KPIDocument
	if _, err := v.decode(data); err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, errors.NewParsingError("decode kpi document", err)
	}
	return doc, nil
}

// Compact validates data and returns it without insignificant whitespace.
func (v *DocumentValidator) Compact(data []byte) ([]byte, error) {
	if _, err := v.decode(data); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, errors.NewParsingError("compact kpi document", err)
	}
	return buf.Bytes(), nil
}

func (v *DocumentValidator) decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.NewParsingError("document is not valid JSON", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.NewParsingError("document is not valid JSON",
			fmt.Errorf("unexpected data after top-level value"))
	}

	if err := v.schema.Validate(doc); err != nil {
		return nil, errors.NewAppValidationError("document does not match kpi schema", err)
	}
	return doc, nil
}

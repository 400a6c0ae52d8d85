package apiclient

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed envelope.schema.json
var envelopeSchemaSource string

var (
	envelopeSchemaOnce sync.Once
	envelopeSchema     *jsonschema.Schema
	envelopeSchemaErr  error
)

func compiledEnvelopeSchema() (*jsonschema.Schema, error) {
	envelopeSchemaOnce.Do(func() {
		envelopeSchema, envelopeSchemaErr = jsonschema.CompileString("envelope.schema.json", envelopeSchemaSource)
	})
	return envelopeSchema, envelopeSchemaErr
}

// validateEnvelope checks a raw body against the envelope contract.
func validateEnvelope(body []byte) error {
	schema, err := compiledEnvelopeSchema()
	if err != nil {
		return fmt.Errorf("compile envelope schema: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var payload interface{}
	if err := decoder.Decode(&payload); err != nil {
		return err
	}
	return schema.Validate(payload)
}

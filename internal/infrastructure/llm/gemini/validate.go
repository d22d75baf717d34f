package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

const resultSchemaURL = "audit_result.schema.json"

type resultValidator struct {
	schema *jsonschema.Schema
}

func newResultValidator() (*resultValidator, error) {
	raw, err := json.Marshal(validationSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal result schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resultSchemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add result schema: %w", err)
	}
	schema, err := compiler.Compile(resultSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile result schema: %w", err)
	}
	return &resultValidator{schema: schema}, nil
}

// Decode parses a model payload into a typed result or a SchemaViolation.
func (v *resultValidator) Decode(payload string) (domain.AuditResult, error) {
	raw := []byte(extractJSONObject(payload))

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.AuditResult{}, domain.WrapError(domain.ErrSchemaViolation, "parse audit json", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return domain.AuditResult{}, domain.WrapError(domain.ErrSchemaViolation, "validate audit json", err)
	}

	var result domain.AuditResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.AuditResult{}, domain.WrapError(domain.ErrSchemaViolation, "decode audit result", err)
	}
	if err := result.Validate(); err != nil {
		return domain.AuditResult{}, domain.WrapError(domain.ErrSchemaViolation, "check audit result", err)
	}
	return result, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

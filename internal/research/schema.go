package research

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// briefSchema is the declarative Brief contract. It gates the final pipeline
// output and doubles as the specification the reconciler has to satisfy, so a
// violation here means a reconciliation defect, never provider flakiness.
const briefSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["company", "industry", "strategic_moves", "competitors", "use_cases", "citations"],
  "properties": {
    "company": {
      "type": "object",
      "required": ["name", "website", "summary"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "website": {"type": "string", "format": "uri"},
        "summary": {"type": "string", "minLength": 100}
      }
    },
    "industry": {
      "type": "object",
      "required": ["summary", "trends"],
      "properties": {
        "summary": {"type": "string", "minLength": 20, "maxLength": 300},
        "trends": {
          "type": "array",
          "minItems": 4,
          "maxItems": 6,
          "items": {"type": "string", "minLength": 1, "maxLength": 200}
        }
      }
    },
    "strategic_moves": {
      "type": "array",
      "minItems": 3,
      "maxItems": 5,
      "items": {
        "type": "object",
        "required": ["move", "owner", "horizon_quarters", "rationale"],
        "properties": {
          "move": {"type": "string", "minLength": 1},
          "owner": {"type": "string", "minLength": 1},
          "horizon_quarters": {"type": "integer", "minimum": 1, "maximum": 4},
          "rationale": {"type": "string"}
        }
      }
    },
    "competitors": {
      "type": "array",
      "minItems": 2,
      "maxItems": 6,
      "items": {
        "type": "object",
        "required": ["name", "website", "geo_fit", "evidence_pages"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "website": {"type": "string", "format": "uri"},
          "positioning": {"type": "string"},
          "ai_maturity": {"type": "string"},
          "innovation_focus": {"type": "string"},
          "employee_band": {"type": "string"},
          "geo_fit": {"type": "string", "minLength": 1},
          "evidence_pages": {
            "type": "array",
            "minItems": 2,
            "items": {"type": "string", "format": "uri"}
          },
          "citations": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "use_cases": {
      "type": "array",
      "minItems": 5,
      "maxItems": 5,
      "items": {
        "type": "object",
        "required": ["title", "description", "value_driver", "complexity", "effort",
          "annual_benefit_usd", "one_time_cost_usd", "ongoing_cost_usd", "payback_months",
          "data_requirements", "risks", "next_steps", "citations"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "value_driver": {"type": "string", "enum": ["revenue", "cost", "risk", "speed"]},
          "complexity": {"type": "integer", "minimum": 1, "maximum": 5},
          "effort": {"type": "integer", "minimum": 1, "maximum": 5},
          "annual_benefit_usd": {"type": "number", "exclusiveMinimum": 0},
          "one_time_cost_usd": {"type": "number", "minimum": 0},
          "ongoing_cost_usd": {"type": "number", "minimum": 0},
          "payback_months": {"type": "integer", "minimum": 1},
          "data_requirements": {"type": "array", "items": {"type": "string"}},
          "risks": {"type": "array", "items": {"type": "string"}},
          "next_steps": {"type": "array", "items": {"type": "string"}},
          "citations": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "citations": {"type": "array", "items": {"type": "string"}},
    "roi": {
      "type": "object",
      "required": ["total_benefit_usd", "total_investment_usd", "overall_roi_pct", "weighted_payback_months"],
      "properties": {
        "total_benefit_usd": {"type": "number"},
        "total_investment_usd": {"type": "number"},
        "overall_roi_pct": {"type": "number"},
        "weighted_payback_months": {"type": "number"}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(briefSchema))
	})
	return compiledSchema, schemaErr
}

// ValidateBrief checks a Brief against the declarative contract. A non-nil
// error is an internal-consistency failure.
func ValidateBrief(b Brief) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("%w: schema compile: %v", ErrInternalConsistency, err)
	}
	blob, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("%w: brief marshal: %v", ErrInternalConsistency, err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(blob))
	if err != nil {
		return fmt.Errorf("%w: schema validate: %v", ErrInternalConsistency, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			msgs = append(msgs, re.String())
		}
		return fmt.Errorf("%w: %v", ErrInternalConsistency, msgs)
	}
	return nil
}

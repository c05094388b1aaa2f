package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

// CustomFieldDefinition is one admin-defined input on a product page.
type CustomFieldDefinition struct {
	Key         string                `json:"key"`
	Label       string                `json:"label"`
	Type        enums.CustomFieldType `json:"type"`
	Required    bool                  `json:"required"`
	Placeholder string                `json:"placeholder,omitempty"`
}

// CustomFields is the ordered list stored in products.custom_fields.
type CustomFields []CustomFieldDefinition

func (c *CustomFields) Scan(src any) error {
	return scanJSON(src, c, "CustomFields")
}

func (c CustomFields) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return valueJSON(c)
}

// Required returns the keys that must be present in a line's custom input.
func (c CustomFields) Required() []string {
	keys := []string{}
	for _, f := range c {
		if f.Required {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// CustomInput is the opaque key to scalar bag captured per order item.
type CustomInput map[string]any

func (c *CustomInput) Scan(src any) error {
	return scanJSON(src, c, "CustomInput")
}

func (c CustomInput) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	return valueJSON(c)
}

// Validate checks well-formedness only: non-empty keys and scalar values.
func (c CustomInput) Validate() error {
	for k, v := range c {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("custom input keys must not be empty")
		}
		switch v.(type) {
		case nil, string, bool, float64, float32, int, int32, int64, json.Number:
		default:
			return fmt.Errorf("custom input %q must be a scalar, got %T", k, v)
		}
	}
	return nil
}

// Missing returns the required keys absent or blank in the input.
func (c CustomInput) Missing(required []string) []string {
	missing := []string{}
	for _, key := range required {
		v, ok := c[key]
		if !ok || v == nil {
			missing = append(missing, key)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

func scanJSON(src any, dst any, name string) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("%s: unsupported Scan type %T", name, src)
	}
}

func valueJSON(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

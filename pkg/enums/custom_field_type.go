package enums

import "fmt"

// CustomFieldType is the input kind of an admin-defined product field.
type CustomFieldType string

const (
	CustomFieldText     CustomFieldType = "text"
	CustomFieldTextarea CustomFieldType = "textarea"
	CustomFieldNumber   CustomFieldType = "number"
)

var validCustomFieldTypes = []CustomFieldType{
	CustomFieldText,
	CustomFieldTextarea,
	CustomFieldNumber,
}

func (c CustomFieldType) IsValid() bool {
	for _, candidate := range validCustomFieldTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseCustomFieldType(value string) (CustomFieldType, error) {
	for _, candidate := range validCustomFieldTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid custom field type %q", value)
}

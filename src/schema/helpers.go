package schema

import (
	jsonschema "github.com/swaggest/jsonschema-go"
)

func typed(t string, description string) *jsonschema.Schema {
	st := jsonschema.SimpleType(t)
	s := &jsonschema.Schema{Type: &jsonschema.Type{SimpleTypes: &st}}
	if description != "" {
		s.Description = &description
	}
	return s
}

// CreateStringSchema creates a JSON schema for a string field
func CreateStringSchema(description string) *jsonschema.Schema {
	return typed("string", description)
}

// CreateStringSchemaEnum creates a JSON schema for a string field with enum values
func CreateStringSchemaEnum(description string, enumValues []string) *jsonschema.Schema {
	s := typed("string", description)
	s.Enum = make([]interface{}, len(enumValues))
	for i, v := range enumValues {
		s.Enum[i] = v
	}
	return s
}

// CreateIntegerSchema creates a JSON schema for an integer field
func CreateIntegerSchema(description string) *jsonschema.Schema {
	return typed("integer", description)
}

// CreateIntegerRangeSchema creates an integer schema bounded by min and max, inclusive.
func CreateIntegerRangeSchema(description string, min, max int) *jsonschema.Schema {
	s := typed("integer", description)
	lo, hi := float64(min), float64(max)
	s.Minimum = &lo
	s.Maximum = &hi
	return s
}

// CreateArraySchema creates a JSON schema for an array of items
func CreateArraySchema(description string, items *jsonschema.Schema) *jsonschema.Schema {
	s := typed("array", description)
	if items != nil {
		s.Items = &jsonschema.Items{SchemaOrBool: &jsonschema.SchemaOrBool{TypeObject: items}}
	}
	return s
}

// CreateObjectSchema creates a JSON schema for an object with properties and required fields
func CreateObjectSchema(properties map[string]*jsonschema.Schema, required []string) *jsonschema.Schema {
	s := typed("object", "")
	s.Properties = make(map[string]jsonschema.SchemaOrBool, len(properties))
	for name, prop := range properties {
		s.Properties[name] = jsonschema.SchemaOrBool{TypeObject: prop}
	}
	s.Required = required
	return s
}

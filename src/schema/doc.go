// Package schema builds JSON Schema values by hand for structured model
// output, where reflecting a Go type would produce the wrong shape.
//
//	taskSchema := schema.CreateObjectSchema(map[string]*jsonschema.Schema{
//		"task_name": schema.CreateStringSchema("Short present progressive description"),
//		"class":     schema.CreateStringSchema("Category of the task"),
//	}, []string{"task_name", "class"})
package schema

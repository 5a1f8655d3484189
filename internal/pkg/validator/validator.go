package validator

// Validator validates structs using their field tags.
type Validator interface {
	// Validate returns nil when data passes all tag rules.
	Validate(data any) error
}

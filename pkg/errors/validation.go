package errors

// ValidationError reports a bad configuration value or argument caught
// before any I/O is attempted: which field, which rule it broke, and what
// was provided versus expected.
type ValidationError struct {
	*baseError

	field    string
	rule     string
	provided any
	expected any
}

// NewValidationError wraps cause under code and msg as a ValidationError.
func NewValidationError(cause error, code ErrorCode, msg string) *ValidationError {
	return &ValidationError{baseError: NewBaseError(cause, code, msg)}
}

func (ve *ValidationError) WithMessage(msg string) *ValidationError {
	ve.baseError.WithMessage(msg)
	return ve
}

func (ve *ValidationError) WithCode(code ErrorCode) *ValidationError {
	ve.baseError.WithCode(code)
	return ve
}

func (ve *ValidationError) WithDetail(key string, value any) *ValidationError {
	ve.baseError.WithDetail(key, value)
	return ve
}

// WithField records which field failed validation.
func (ve *ValidationError) WithField(field string) *ValidationError {
	ve.field = field
	return ve
}

// WithRule records which rule was violated, e.g. "required" or "range".
func (ve *ValidationError) WithRule(rule string) *ValidationError {
	ve.rule = rule
	return ve
}

// WithProvided records the value that failed validation.
func (ve *ValidationError) WithProvided(value any) *ValidationError {
	ve.provided = value
	return ve
}

// WithExpected records what would have been a valid value.
func (ve *ValidationError) WithExpected(value any) *ValidationError {
	ve.expected = value
	return ve
}

func (ve *ValidationError) Field() string {
	return ve.field
}

func (ve *ValidationError) Rule() string {
	return ve.rule
}

func (ve *ValidationError) Provided() any {
	return ve.provided
}

func (ve *ValidationError) Expected() any {
	return ve.expected
}

// NewRequiredFieldError reports a missing required configuration field.
func NewRequiredFieldError(fieldName string) *ValidationError {
	return NewValidationError(nil, ErrorCodeInvalidInput, "required field is missing or empty").
		WithField(fieldName).WithRule("required")
}

// NewFieldFormatError reports a field whose value doesn't match the
// expected format, e.g. a data directory path that isn't a non-empty string.
func NewFieldFormatError(fieldName string, provided any, expected string) *ValidationError {
	return NewValidationError(nil, ErrorCodeInvalidInput, "field value does not match expected format").
		WithField(fieldName).WithRule("format").WithProvided(provided).WithExpected(expected)
}

// NewFieldRangeError reports a field whose value falls outside an
// acceptable range, e.g. a worker count of zero.
func NewFieldRangeError(fieldName string, provided any, min, max any) *ValidationError {
	return NewValidationError(nil, ErrorCodeInvalidInput, "field value is outside acceptable range").
		WithField(fieldName).
		WithRule("range").
		WithProvided(provided).
		WithDetail("minValue", min).
		WithDetail("maxValue", max)
}

// NewConfigurationValidationError reports that a *Config value handed to a
// constructor (engine.New, storage.New, index.New, ...) is missing or
// otherwise unusable.
func NewConfigurationValidationError(field string, issue string) *ValidationError {
	return NewValidationError(nil, ErrorCodeInvalidInput, "configuration validation failed").
		WithField(field).
		WithRule("configuration_integrity").
		WithDetail("validationIssue", issue)
}

package validation

// ValidationError describes one domain-rule violation found in a submitted
// sample. Validators construct errors; nothing mutates them afterwards.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value"`
}

// ValidationWarning has the same shape as ValidationError but never affects
// validity. Used for near-threshold conditions worth surfacing to the cellar.
type ValidationWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value"`
}

// ValidationResult aggregates the errors and warnings produced by one or more
// validator calls. Invariant: Valid is true exactly when Errors is empty.
type ValidationResult struct {
	Valid    bool                `json:"valid"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}

// Success returns a valid result with no errors and no warnings.
func Success() ValidationResult {
	return ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}
}

// Failure returns an invalid result carrying the given errors in order.
// Calling Failure with no errors is a programmer error, not a user input
// problem, and panics rather than silently producing a valid result.
func Failure(errors ...ValidationError) ValidationResult {
	if len(errors) == 0 {
		panic("validation: Failure requires at least one error")
	}
	return ValidationResult{
		Valid:    false,
		Errors:   errors,
		Warnings: []ValidationWarning{},
	}
}

// AddWarning appends a warning. Warnings preserve insertion order and never
// change Valid.
func (r *ValidationResult) AddWarning(field, message string, value any) {
	r.Warnings = append(r.Warnings, ValidationWarning{
		Field:   field,
		Message: message,
		Value:   value,
	})
}

// Combine merges results in the order given. The combined result is invalid
// if any constituent is invalid; errors and warnings are concatenated in
// validator-invocation order.
func Combine(results ...ValidationResult) ValidationResult {
	combined := Success()
	for _, res := range results {
		if !res.Valid {
			combined.Valid = false
		}
		combined.Errors = append(combined.Errors, res.Errors...)
		combined.Warnings = append(combined.Warnings, res.Warnings...)
	}
	return combined
}

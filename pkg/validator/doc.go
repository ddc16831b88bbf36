// Package validator provides composable, rule-based input validation.
//
// Rules are plain values combining a predicate and a field-scoped error;
// Apply runs them all and aggregates failures into ValidationErrors:
//
//	if err := validator.Apply(
//		validator.ValidEmail("email", email),
//		validator.MinLength("password", password, 8),
//		validator.Equals("passwordConfirm", confirm, password),
//	); err != nil {
//		// err is validator.ValidationErrors
//	}
package validator

package utils

import "github.com/go-playground/validator/v10"

// validate is the same go-playground engine gin uses for binding tags; safe for concurrent use.
var validate = validator.New()

// IsEmail reports whether s is a well-formed email address.
func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

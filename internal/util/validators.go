package util

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._]+$`)

// ValidateUsername 验证用户名只包含字母、数字、下划线和点
func ValidateUsername(fl validator.FieldLevel) bool {
	username, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return usernamePattern.MatchString(username)
}

package validator

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Init registers custom tags on gin's validator engine.
//   - hexstr: even-length hex string (may be empty)
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("hexstr", func(fl validator.FieldLevel) bool {
			s := strings.TrimPrefix(fl.Field().String(), "0x")
			_, err := hex.DecodeString(s)
			return err == nil
		})
	}
}

// GetErrorMsg translates validation errors into user-friendly messages
func GetErrorMsg(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	errMsgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("%s is required", field))
		case "min", "gte":
			errMsgs = append(errMsgs, fmt.Sprintf("%s must be at least %s", field, param))
		case "max", "lte":
			errMsgs = append(errMsgs, fmt.Sprintf("%s must be at most %s", field, param))
		case "gt":
			errMsgs = append(errMsgs, fmt.Sprintf("%s must be greater than %s", field, param))
		case "oneof":
			errMsgs = append(errMsgs, fmt.Sprintf("%s must be one of [%s]", field, param))
		case "hexstr":
			errMsgs = append(errMsgs, fmt.Sprintf("%s must be hex", field))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("%s failed %s", field, e.Tag()))
		}
	}
	return strings.Join(errMsgs, "; ")
}

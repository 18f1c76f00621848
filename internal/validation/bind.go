package validation

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	validatorv10 "github.com/go-playground/validator/v10"
)

// BindAndValidate binds the request into out and runs validation. GET reads
// the query string; other methods read a JSON body, which may be empty.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	var err error
	if c.Request.Method == http.MethodGet || c.Request.ContentLength == 0 {
		err = c.ShouldBindWith(out, binding.Query)
	} else {
		err = c.ShouldBindJSON(out)
	}
	if err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	if n, ok := out.(interface{ Normalize() }); ok {
		n.Normalize()
	}
	return v.Struct(out)
}

// FieldErrors maps failed fields to their rule, for error responses.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
	} else if err != nil {
		out["error"] = err.Error()
	}
	return out
}

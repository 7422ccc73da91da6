package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func init() {
	// Report JSON names instead of Go field names in validation errors.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// bindJSON decodes and validates the body, writing a 400 on failure.
func (h *Handler) bindJSON(c *gin.Context, endpoint string, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	h.metrics.Simulations.WithLabelValues(endpoint, "invalid").Inc()

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": fields,
		})
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"error": "invalid request body: " + err.Error(),
	})
	return false
}

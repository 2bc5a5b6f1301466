// Package handlers adapts the domain services to gin.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// BaseHandler carries the binding and response helpers every handler embeds.
type BaseHandler struct{}

// NewBaseHandler also switches gin's validator to report JSON field names
// and teaches it the money tag.
func NewBaseHandler() *BaseHandler {
	configureValidator()
	return &BaseHandler{}
}

var validatorOnce sync.Once

func configureValidator() {
	validatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})

		// Money fields are validated through their decimal text.
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(fl.Field().String())
			return err == nil && types.FitsStorage(d)
		})
	})
}

// BindJSON decodes the request body into obj. On failure it aborts with a
// validation error listing the offending fields.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	return h.bind(c, c.ShouldBindJSON(obj), "invalid request body")
}

// BindQuery is BindJSON for the query string.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	return h.bind(c, c.ShouldBindQuery(obj), "invalid query parameters")
}

func (h *BaseHandler) bind(c *gin.Context, err error, message string) bool {
	if err == nil {
		return true
	}
	appErr := apperror.NewValidation(message)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = describe(fe)
		}
		appErr.WithDetail("fields", fields)
	} else {
		appErr.WithDetail("error", err.Error())
	}
	h.Error(c, appErr)
	return false
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "money":
		return fmt.Sprintf("must have at most %d decimal places", types.MoneyScale)
	}
	return "is invalid"
}

// Error hands err to middleware.ErrorHandler and stops the chain.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// PathID reads the :name path parameter as an id.
func (h *BaseHandler) PathID(c *gin.Context, name string) (id.ID, bool) {
	raw := c.Param(name)
	parsed, err := id.Parse(raw)
	if err == nil {
		return parsed, true
	}
	h.Error(c, apperror.NewValidation("invalid id format").
		WithDetail("field", name).
		WithDetail("value", raw))
	return id.ID{}, false
}

func (h *BaseHandler) OK(c *gin.Context, body any)      { c.JSON(http.StatusOK, body) }
func (h *BaseHandler) Created(c *gin.Context, body any) { c.JSON(http.StatusCreated, body) }
func (h *BaseHandler) NoContent(c *gin.Context)         { c.Status(http.StatusNoContent) }

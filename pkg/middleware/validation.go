package middleware

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// InitValidator initializes the validator with custom validators
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()

		registerCustoms(validate)

		// Use JSON tag names for error messages
		validate.RegisterTagNameFunc(jsonTagName)

		// Set as Gin's default validator
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			registerCustoms(v)
			v.RegisterTagNameFunc(jsonTagName)
		}
	})

	return validate
}

// GetValidator returns the singleton validator instance
func GetValidator() *validator.Validate {
	if validate == nil {
		return InitValidator()
	}
	return validate
}

func registerCustoms(v *validator.Validate) {
	_ = v.RegisterValidation("item_code", validateItemCode)
	_ = v.RegisterValidation("batch_no", validateBatchNo)
	_ = v.RegisterValidation("shipment_id", validateShipmentID)
	_ = v.RegisterValidation("location_id", validateLocationID)
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return fld.Name
	}
	return name
}

// Custom validators

var (
	itemCodeRegex   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{1,49}$`)
	batchNoRegex    = regexp.MustCompile(`^[A-Za-z0-9]{1,20}$`)
	shipmentIDRegex = regexp.MustCompile(`^[A-Za-z0-9-]{4,64}$`)
	locationRegex   = regexp.MustCompile(`^[A-Z]{1,2}-\d{2}-\d{2}-[A-Z0-9]+$`)
)

func validateItemCode(fl validator.FieldLevel) bool {
	return itemCodeRegex.MatchString(fl.Field().String())
}

func validateBatchNo(fl validator.FieldLevel) bool {
	return batchNoRegex.MatchString(fl.Field().String())
}

func validateShipmentID(fl validator.FieldLevel) bool {
	return shipmentIDRegex.MatchString(fl.Field().String())
}

func validateLocationID(fl validator.FieldLevel) bool {
	return locationRegex.MatchString(fl.Field().String())
}

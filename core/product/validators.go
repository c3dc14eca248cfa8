package product

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/datagrid/core"
)

var (
	sortColumnTag  = "sortcolumn"
	sortColumnText = "{0} must be a sortable column"

	sortOrderTag  = "sortorder"
	sortOrderText = "{0} must be one of asc, desc"
)

// InitValidators registers the product validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(sortColumnTag, sortColumnValidation)
	core.RegisterCustomTranslation(validate, translator, sortColumnTag, sortColumnText)

	_ = validate.RegisterValidation(sortOrderTag, sortOrderValidation)
	core.RegisterCustomTranslation(validate, translator, sortOrderTag, sortOrderText)
}

// Custom Validators

// sortColumnValidation checks that the field names a sortable column of Schema
func sortColumnValidation(fl validator.FieldLevel) bool {
	if col, ok := fl.Field().Interface().(string); ok {
		return schema.IsSortable(col)
	}
	return false
}

func sortOrderValidation(fl validator.FieldLevel) bool {
	if order, ok := fl.Field().Interface().(string); ok {
		return order == OrderAsc || order == OrderDesc
	}
	return false
}

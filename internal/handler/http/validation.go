package http

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/utafrali/storefront/internal/domain"
	pkgvalidator "github.com/utafrali/storefront/pkg/validator"
)

func init() {
	if err := registerValidations(); err != nil {
		panic(err)
	}
}

func registerValidations() error {
	if err := pkgvalidator.Register("shoe_size", func(fl validator.FieldLevel) bool {
		return domain.ValidSize(int(fl.Field().Int()))
	}, fmt.Sprintf("must be a size between %d and %d", domain.Sizes[0], domain.Sizes[len(domain.Sizes)-1])); err != nil {
		return err
	}
	return pkgvalidator.Register("color_id", func(fl validator.FieldLevel) bool {
		return domain.ValidColorID(fl.Field().String())
	}, "must be a lowercase color id")
}

package utils

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{1,38}[a-z0-9])$`)

var registerOnce sync.Once

// RegisterValidators adds the request-binding rules used by the controllers:
// "kzphone" (input normalizes to a full KZ/RU number), "intlphone" (digits that honour
// the phone contract) and "slug" (store URL slug).
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		rules := map[string]validator.Func{
			"kzphone": func(fl validator.FieldLevel) bool {
				return NormalizeKZPhone(fl.Field().String()) != ""
			},
			"intlphone": func(fl validator.FieldLevel) bool {
				return PhoneDigitsValid(fl.Field().String())
			},
			"slug": func(fl validator.FieldLevel) bool {
				return IsValidSlug(fl.Field().String())
			},
		}
		for tag, fn := range rules {
			if err = v.RegisterValidation(tag, fn); err != nil {
				return
			}
		}
	})
	return err
}

// IsValidSlug reports whether s can be used as a storefront URL slug
func IsValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

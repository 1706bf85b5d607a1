package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"
)

var (
	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "ce champ ne peut pas être vide"

	hexColorTag   = "hexcolor_"
	hexColorText  = "couleur hexadécimale invalide (ex. #1A2B3C)"
	hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)

	requiredTag      = "required"
	requiredWithTag  = "required_with"
	requiredText     = "ce champ est obligatoire"
	emailTag         = "email"
	emailText        = "adresse email invalide"
	oneOfTag         = "oneof"
	oneOfText        = "valeur invalide"
	eqFieldTag       = "eqfield"
	eqFieldText      = "les valeurs ne correspondent pas"
	uuidTag          = "uuid"
	uuidText         = "identifiant invalide"
	gteTag           = "gte"
	gteText          = "valeur trop petite"
	maxTag           = "max"
	maxText          = "valeur trop longue"
	lenTag           = "len"
	lenText          = "longueur invalide"
	dateTag          = "datetime"
	dateText         = "date invalide (format AAAA-MM-JJ)"
	defaultLocale    = fr.New()
	translatorLocale = "fr"
)

// NewTranslator returns the French translator used for validation messages.
func NewTranslator() ut.Translator {
	uni := ut.New(defaultLocale, defaultLocale)
	translator, _ := uni.GetTranslator(translatorLocale)
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = fr_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)
	_ = validate.RegisterValidation(hexColorTag, hexColorValidation)
	RegisterCustomTranslation(validate, translator, hexColorTag, hexColorText)

	// short, stable messages for the most common tags
	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, emailTag, emailText, true)
	RegisterCustomTranslation(validate, translator, oneOfTag, oneOfText, true)
	RegisterCustomTranslation(validate, translator, eqFieldTag, eqFieldText, true)
	RegisterCustomTranslation(validate, translator, uuidTag, uuidText, true)
	RegisterCustomTranslation(validate, translator, gteTag, gteText, true)
	RegisterCustomTranslation(validate, translator, maxTag, maxText, true)
	RegisterCustomTranslation(validate, translator, lenTag, lenText, true)
	RegisterCustomTranslation(validate, translator, dateTag, dateText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// hexColorValidation allows empty values; combine with `required` otherwise.
func hexColorValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || hexColorRegex.MatchString(s)
}

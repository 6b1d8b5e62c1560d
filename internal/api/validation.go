package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Request payload schemas. Constraints follow the data model: usernames
// 3-30 chars, titles 3-100, post text at least 3, comments 1-2500.
// Update schemas keep every field optional but bounded when present.
type (
	registerRequest struct {
		Username string `json:"username" validate:"required,min=3,max=30"`
		Password string `json:"password" validate:"required,min=6,max=72"`
		Email    string `json:"eMail" validate:"required,email"`
	}

	loginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	newPostRequest struct {
		Title       string `json:"title" validate:"required,min=3,max=100"`
		Text        string `json:"text" validate:"required,min=3"`
		IsPublished *bool  `json:"isPublished"`
	}

	updatePostRequest struct {
		Title       *string `json:"title" validate:"omitempty,min=3,max=100"`
		Text        *string `json:"text" validate:"omitempty,min=3"`
		IsPublished *bool   `json:"isPublished"`
	}

	newCommentRequest struct {
		Text string `json:"text" validate:"required,min=1,max=2500"`
	}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkRequest returns the first violated field's message, or "" when
// the payload is valid.
func checkRequest(v any) string {
	err := validate.Struct(v)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fieldMessage(verrs[0])
	}
	return "invalid request body"
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

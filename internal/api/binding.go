// Copyright 2024 AI SA Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/your-org/arch-planner/internal/engine"
	"github.com/your-org/arch-planner/internal/feedback"
	"github.com/your-org/arch-planner/internal/resilience"
)

var registerJSONNames sync.Once

// useJSONFieldNames makes binding errors name fields the way clients send them
func useJSONFieldNames() {
	registerJSONNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

func invalidField(field, message string, internal error) *resilience.ServiceError {
	return resilience.NewValidationError(field, fmt.Sprintf("invalid request field '%s': %s", field, message), internal)
}

// bindingError maps a ShouldBindJSON failure to a client error
func bindingError(err error) *resilience.ServiceError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return invalidField(fe.Field(), validationMessage(fe), err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return invalidField(typeErr.Field, fmt.Sprintf("must be a %s", jsonKind(typeErr.Type)), err)
	}

	if errors.Is(err, io.EOF) {
		return resilience.NewBadRequestError("request body is required", err)
	}

	return resilience.NewBadRequestError("request body is not valid JSON", err)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int64, reflect.Int32:
		return "whole number"
	case reflect.Float64, reflect.Float32:
		return "number"
	default:
		return "string"
	}
}

// domainError maps engine and feedback validation failures to client errors
func domainError(err error) error {
	var engineErr *engine.ValidationError
	if errors.As(err, &engineErr) {
		return resilience.NewValidationError(engineErr.Field, engineErr.Error(), err)
	}

	var feedbackErr *feedback.ValidationError
	if errors.As(err, &feedbackErr) {
		return resilience.NewValidationError(feedbackErr.Field, feedbackErr.Error(), err)
	}

	return err
}

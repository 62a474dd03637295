// Copyright 2026 The Datagov Authors
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

// Package validation checks request bodies against declared shapes before any
// handler logic runs. Validation is structural: unknown fields are ignored.
// Presence and JSON types are checked here; value rules are delegated to
// go-playground/validator.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TimestampLayout is the accepted date-time form: UTC with a literal Z.
// Fractional seconds are accepted when parsing.
const TimestampLayout = "2006-01-02T15:04:05Z"

var validate = validator.New()

// FieldError describes one violated field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned when a body does not satisfy its schema.
type Error struct {
	Details []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Details))
	for i, d := range e.Details {
		parts[i] = d.Field + " " + d.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewError builds an Error for a single field.
func NewError(field, message string) *Error {
	return &Error{Details: []FieldError{{Field: field, Message: message}}}
}

// Blank reports an empty or whitespace-only value as a violation of field.
// It returns nil for anything else.
func Blank(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewError(field, "must not be empty")
	}
	return nil
}

type kind int

const (
	kindString kind = iota
	kindEmail
	kindEnum
	kindBool
	kindTimestamp
	kindJSON
)

// Field declares one body property.
type Field struct {
	name     string
	kind     kind
	required bool
	trim     bool
	minLen   int
	values   []string
}

// String declares a string property.
func String(name string) Field { return Field{name: name, kind: kindString} }

// Email declares a string property holding an email address.
func Email(name string) Field { return Field{name: name, kind: kindEmail} }

// Enum declares a string property restricted to values.
func Enum(name string, values ...string) Field {
	return Field{name: name, kind: kindEnum, values: values}
}

// Bool declares a boolean property.
func Bool(name string) Field { return Field{name: name, kind: kindBool} }

// Timestamp declares a UTC date-time string property (see TimestampLayout).
func Timestamp(name string) Field { return Field{name: name, kind: kindTimestamp} }

// JSON declares a free form property. Any JSON value, null included, is accepted.
func JSON(name string) Field { return Field{name: name, kind: kindJSON} }

// Required marks the property as mandatory.
func (f Field) Required() Field {
	f.required = true
	return f
}

// Min sets a minimum length in characters for string properties.
func (f Field) Min(n int) Field {
	f.minLen = n
	return f
}

// Trimmed applies length rules to the value without surrounding whitespace.
func (f Field) Trimmed() Field {
	f.trim = true
	return f
}

// Schema is an ordered set of fields. Violations are reported in declaration order.
type Schema []Field

// Object declares a schema.
func Object(fields ...Field) Schema { return Schema(fields) }

// Validate checks body against the schema. An empty body is treated as an
// empty object so that required fields are reported individually.
func (s Schema) Validate(body []byte) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}

	var obj map[string]json.RawMessage
	if body[0] != '{' || json.Unmarshal(body, &obj) != nil {
		return NewError("body", "must be a JSON object")
	}

	var details []FieldError
	for _, f := range s {
		raw, ok := obj[f.name]
		if !ok {
			if f.required {
				details = append(details, FieldError{Field: f.name, Message: "is required"})
			}
			continue
		}
		if msg := f.check(raw); msg != "" {
			details = append(details, FieldError{Field: f.name, Message: msg})
		}
	}

	if len(details) > 0 {
		return &Error{Details: details}
	}
	return nil
}

func (f Field) check(raw json.RawMessage) string {
	switch f.kind {
	case kindJSON:
		return ""
	case kindBool:
		var b bool
		if json.Unmarshal(raw, &b) != nil || bytes.Equal(raw, []byte("null")) {
			return "must be a boolean"
		}
		return ""
	}

	var str string
	if len(raw) == 0 || raw[0] != '"' || json.Unmarshal(raw, &str) != nil {
		return "must be a string"
	}
	if f.trim {
		str = strings.TrimSpace(str)
	}

	if f.minLen > 0 {
		if err := validate.Var(str, fmt.Sprintf("min=%d", f.minLen)); err != nil {
			return f.message(err)
		}
	}

	var tag string
	switch f.kind {
	case kindEmail:
		tag = "email"
	case kindEnum:
		tag = "oneof=" + strings.Join(f.values, " ")
	case kindTimestamp:
		tag = "datetime=" + TimestampLayout
	default:
		return ""
	}
	if err := validate.Var(str, tag); err != nil {
		return f.message(err)
	}
	return ""
}

func (f Field) message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "is invalid"
	}

	switch verrs[0].Tag() {
	case "min":
		if f.minLen == 1 {
			return "must not be empty"
		}
		return fmt.Sprintf("must be at least %d characters", f.minLen)
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.Join(f.values, ", ")
	case "datetime":
		return "must be a UTC timestamp such as 2030-01-02T15:04:05Z"
	default:
		return "is invalid"
	}
}

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

// Package jsonvalue holds client supplied JSON documents that the service
// stores and returns without interpreting them.
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind tags the top level shape of a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNull
	KindObject
	KindArray
	KindString
	KindNumber
	KindBool
)

var kindNames = [...]string{"absent", "null", "object", "array", "string", "number", "boolean"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ErrInvalid is returned when bytes are not a single JSON document.
var ErrInvalid = errors.New("invalid JSON document")

var nullLiteral = []byte("null")

// Value is an opaque JSON document. The zero Value is absent: the field was
// not supplied. An explicit JSON null is present but null. Bytes are kept
// verbatim so documents round trip unchanged.
type Value struct {
	raw json.RawMessage
}

// Null is an explicit JSON null.
var Null = Value{raw: json.RawMessage(nullLiteral)}

// FromBytes wraps an encoded document. nil yields an absent Value.
func FromBytes(b []byte) (Value, error) {
	if b == nil {
		return Value{}, nil
	}
	trimmed := bytes.TrimSpace(b)
	if !json.Valid(trimmed) {
		return Value{}, ErrInvalid
	}
	return Value{raw: append(json.RawMessage(nil), trimmed...)}, nil
}

// Marshal encodes v into a Value.
func Marshal(v any) (Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Value{}, fmt.Errorf("failed to encode JSON value: %w", err)
	}
	return Value{raw: b}, nil
}

// Present reports whether the field was supplied, including as null.
func (v Value) Present() bool {
	return v.raw != nil
}

// IsNull reports whether the value is absent or an explicit null.
func (v Value) IsNull() bool {
	return v.raw == nil || bytes.Equal(v.raw, nullLiteral)
}

// Kind returns the top level JSON type.
func (v Value) Kind() Kind {
	if v.raw == nil {
		return KindAbsent
	}
	switch v.raw[0] {
	case 'n':
		return KindNull
	case '{':
		return KindObject
	case '[':
		return KindArray
	case '"':
		return KindString
	case 't', 'f':
		return KindBool
	default:
		return KindNumber
	}
}

// Bytes returns the encoded document, or nil when absent.
func (v Value) Bytes() []byte {
	return v.raw
}

// SQLValue returns the bytes to bind to a nullable jsonb column: nil for
// absent or null.
func (v Value) SQLValue() []byte {
	if v.IsNull() {
		return nil
	}
	return v.raw
}

// Equal reports whether both values hold byte identical documents.
func (v Value) Equal(o Value) bool {
	return bytes.Equal(v.raw, o.raw) && (v.raw == nil) == (o.raw == nil)
}

// MarshalJSON implements json.Marshaler. Absent values encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.raw == nil {
		return nullLiteral, nil
	}
	return v.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler. encoding/json invokes it for
// explicit nulls too, which is what makes null distinguishable from absent.
func (v *Value) UnmarshalJSON(b []byte) error {
	if !json.Valid(b) {
		return ErrInvalid
	}
	v.raw = append(json.RawMessage(nil), b...)
	return nil
}

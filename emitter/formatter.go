// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emitter

import (
	"fmt"
	"strconv"
)

// Formatter converts a resolved value to its textual form, before
// escaping. The generated Renderer calls a Formatter for every
// interpolation whose static type is not already one of the model.*
// pre-escaped string types.
type Formatter interface {
	Format(v interface{}) (string, error)
}

// FormatterFunc adapts a function to a Formatter.
type FormatterFunc func(v interface{}) (string, error)

// Format calls f.
func (f FormatterFunc) Format(v interface{}) (string, error) {
	return f(v)
}

// ContractError is returned by generated Renderer code at run time when a
// value violates a static guarantee the resolver believed it had checked
// (e.g. a formatter rejecting an unexpectedly null value): it signals a
// bug in the emitted code or a Formatter's own contract, never a user
// template error.
type ContractError struct {
	Msg string
}

func (e *ContractError) Error() string {
	return "contract violation: " + e.Msg
}

// DefaultFormatter is the ":auto" formatter (model.Auto): it rejects nil
// and formats strings, booleans and numerics via their canonical textual
// form, matching jstachio's default Formatter.of() throwing on unexpected
// null unless a nullable/Default formatter chain is configured
// (original_source/api/jstachio).
var DefaultFormatter Formatter = FormatterFunc(defaultFormat)

func defaultFormat(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", &ContractError{Msg: "formatter received a null value for a non-nullable interpolation"}
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", t), nil
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	default:
		return fmt.Sprintf("%v", t), nil
	}
}

// NullableFormatter wraps base so that a nil value formats as "" instead
// of raising a ContractError, matching a Var resolved to ast.EndNullable
// over an absent pointer/interface.
func NullableFormatter(base Formatter) Formatter {
	return FormatterFunc(func(v interface{}) (string, error) {
		if v == nil {
			return "", nil
		}
		return base.Format(v)
	})
}

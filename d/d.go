// Copyright 2026 The tensorstore Authors.
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

// Package d holds the small assertion and error-wrapping helpers used
// throughout the engine, in the style of dolt's store/d package: panics for
// programmer errors that should never happen given the invariants upstream
// callers are required to hold, and a thin wrap/cause pair for errors that
// do need to cross package boundaries with context attached.
package d

import (
	"fmt"

	"github.com/pkg/errors"
)

// PanicIfError panics if err is non-nil.
func PanicIfError(err error) {
	if err != nil {
		panic(err)
	}
}

// PanicIfTrue panics if b is true.
func PanicIfTrue(b bool) {
	if b {
		panic("expected false, got true")
	}
}

// PanicIfFalse panics if b is false.
func PanicIfFalse(b bool) {
	if !b {
		panic("expected true, got false")
	}
}

// Panic panics with a formatted message.
func Panic(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

type wrappedError struct {
	msg   string
	cause error
}

func (w wrappedError) Error() string {
	return w.msg
}

func (w wrappedError) Cause() error {
	return w.cause
}

func (w wrappedError) Unwrap() error {
	return w.cause
}

// Wrap returns err inside a wrapper exposing Cause() and Unwrap(), unless err is
// already wrapped, in which case it is returned unchanged. Wrap(nil) returns
// nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(wrappedError); ok {
		return err
	}
	return wrappedError{msg: err.Error(), cause: err}
}

// Wrapf wraps err with an additional formatted message, preserving Cause().
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return wrappedError{msg: fmt.Sprintf(format, args...) + ": " + err.Error(), cause: err}
}

// Unwrap returns the innermost cause of err, walking Cause() chains; it stops
// at an error that has no Cause() method.
func Unwrap(err error) error {
	return errors.Cause(err)
}

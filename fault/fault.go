// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type (
	ExistsError   GenericError
	InvalidError  GenericError
	NotFoundError GenericError
	ProcessError  GenericError
)

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised    = ExistsError("already initialised")
	ErrBankNameTooLong       = InvalidError("bank name is too long")
	ErrCacheLifetimeTooShort = InvalidError("cache lifetime is shorter than one sweep tick")
	ErrInvalidAmount         = InvalidError("amount must not be negative")
	ErrInvalidBankName       = InvalidError("bank name contains invalid characters")
	ErrInvalidLoggerChannel  = InvalidError("invalid logger channel")
	ErrInvalidStorageBackend = InvalidError("invalid storage backend")
	ErrNotInitialised        = NotFoundError("not initialised")
	ErrStorageClosed         = ProcessError("storage is closed")
	ErrStorageDisabled       = ProcessError("storage is disabled")
	ErrStorageFailed         = ProcessError("storage operation failed")
	ErrWrongDatabaseVersion  = InvalidError("wrong database version")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }

// IsErrExists - determine the class of an error
func IsErrExists(e error) bool { _, ok := e.(ExistsError); return ok }

// IsErrInvalid - determine the class of an error
func IsErrInvalid(e error) bool { _, ok := e.(InvalidError); return ok }

// IsErrNotFound - determine the class of an error
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }

// IsErrProcess - determine the class of an error
func IsErrProcess(e error) bool { _, ok := e.(ProcessError); return ok }

package schema

import (
	"errors"
	"fmt"
)

var (
	ErrConnectivity  = errors.New("database unreachable")
	ErrSchemaRead    = errors.New("schema read failed")
	ErrInvalidColumn = errors.New("invalid column row")
)

// ConnectivityError reports that a handle could not list its tables.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: %v", ErrConnectivity, e.Err)
}

func (e *ConnectivityError) Unwrap() []error { return []error{ErrConnectivity, e.Err} }

// ReadError reports that a single table could not be described.
type ReadError struct {
	Table string
	Err   error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s for table %s: %v", ErrSchemaRead, e.Table, e.Err)
}

func (e *ReadError) Unwrap() []error { return []error{ErrSchemaRead, e.Err} }

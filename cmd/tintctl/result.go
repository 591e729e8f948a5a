package main

import (
	"errors"
	"fmt"
)

// Result is the tint service's numeric status code. Zero is success.
//
// Bits 0-8 hold the module, bits 9-21 the description.
type Result uint32

const (
	resultModuleBits      = 9
	resultDescriptionBits = 13

	// moduleTint is the module number of results raised by the tint service
	// and by this client.
	moduleTint = 380

	// displayModuleOffset is added to the module when printing a result.
	displayModuleOffset = 2000
)

// MakeResult packs a module and description into a Result.
func MakeResult(module, description uint32) Result {
	m := module & (1<<resultModuleBits - 1)
	d := description & (1<<resultDescriptionBits - 1)
	return Result(m | d<<resultModuleBits)
}

var (
	ResultSuccess           Result = 0
	ResultUnknownCommand           = MakeResult(10, 221)
	ResultInvalidProfileID         = MakeResult(moduleTint, 1)
	ResultTransport                = MakeResult(moduleTint, 2)
	ResultMalformedResponse        = MakeResult(moduleTint, 3)
	ResultNotInitialized           = MakeResult(moduleTint, 4)
	ResultServiceInactive          = MakeResult(moduleTint, 5)
)

// Module is the subsystem that raised the result.
func (r Result) Module() uint32 {
	return uint32(r) & (1<<resultModuleBits - 1)
}

// Description is the module-specific error number.
func (r Result) Description() uint32 {
	return (uint32(r) >> resultModuleBits) & (1<<resultDescriptionBits - 1)
}

// Succeeded reports whether r is a success code.
func (r Result) Succeeded() bool { return r == ResultSuccess }

// Error renders r as "0x<raw> (<module+2000>-<description>)".
func (r Result) Error() string {
	return fmt.Sprintf("%#x (%04d-%04d)", uint32(r), r.Module()+displayModuleOffset, r.Description())
}

// ResultOf extracts the Result carried by err. Errors that carry none are
// transport failures.
func ResultOf(err error) Result {
	if err == nil {
		return ResultSuccess
	}
	var r Result
	if errors.As(err, &r) {
		return r
	}
	return ResultTransport
}

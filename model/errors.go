// Package model holds the in-memory HEIF object graph: items, properties,
// decoder configurations, tracks, samples, entity groups, and the
// reference-counted back-links between them. It corresponds to the object
// model layer described by spec.md §3/§4.5; box-level codec concerns stay
// in the root package and sample-table synthesis lives in package
// sampletable.
package model

import "fmt"

// Kind enumerates the closed set of error kinds a model operation can
// return (spec.md §7). Kind zero is Ok and is never itself returned as an
// error value.
type Kind int

const (
	Ok Kind = iota
	FileOpenError
	FileReadError
	FileHeaderError
	Uninitialized
	AlreadyInitialized
	BrandsNotSet
	FtypAlreadyWritten
	PrimaryItemNotSet
	HiddenPrimaryItem
	InvalidItemId
	InvalidSequenceId
	InvalidSequenceImageId
	InvalidPropertyIndex
	InvalidGroupId
	InvalidDecoderConfigId
	InvalidMediaDataId
	InvalidFunctionParameter
	InvalidReferenceCount
	InvalidMediaFormat
	UnsupportedCodeType
	MediaParsingError
	DecoderConfigurationError
	ProtectedItem
	UnprotectedItem
	BufferSizeTooSmall
	AlreadyInGroup
	AlreadySet
	IndexOutOfBounds
	InvalidHandle
	AllocatorAlreadySet
	Todo
)

func (k Kind) String() string {
	switch k {
	case Ok:
		return "Ok"
	case FileOpenError:
		return "FileOpenError"
	case FileReadError:
		return "FileReadError"
	case FileHeaderError:
		return "FileHeaderError"
	case Uninitialized:
		return "Uninitialized"
	case AlreadyInitialized:
		return "AlreadyInitialized"
	case BrandsNotSet:
		return "BrandsNotSet"
	case FtypAlreadyWritten:
		return "FtypAlreadyWritten"
	case PrimaryItemNotSet:
		return "PrimaryItemNotSet"
	case HiddenPrimaryItem:
		return "HiddenPrimaryItem"
	case InvalidItemId:
		return "InvalidItemId"
	case InvalidSequenceId:
		return "InvalidSequenceId"
	case InvalidSequenceImageId:
		return "InvalidSequenceImageId"
	case InvalidPropertyIndex:
		return "InvalidPropertyIndex"
	case InvalidGroupId:
		return "InvalidGroupId"
	case InvalidDecoderConfigId:
		return "InvalidDecoderConfigId"
	case InvalidMediaDataId:
		return "InvalidMediaDataId"
	case InvalidFunctionParameter:
		return "InvalidFunctionParameter"
	case InvalidReferenceCount:
		return "InvalidReferenceCount"
	case InvalidMediaFormat:
		return "InvalidMediaFormat"
	case UnsupportedCodeType:
		return "UnsupportedCodeType"
	case MediaParsingError:
		return "MediaParsingError"
	case DecoderConfigurationError:
		return "DecoderConfigurationError"
	case ProtectedItem:
		return "ProtectedItem"
	case UnprotectedItem:
		return "UnprotectedItem"
	case BufferSizeTooSmall:
		return "BufferSizeTooSmall"
	case AlreadyInGroup:
		return "AlreadyInGroup"
	case AlreadySet:
		return "AlreadySet"
	case IndexOutOfBounds:
		return "IndexOutOfBounds"
	case InvalidHandle:
		return "InvalidHandle"
	case AllocatorAlreadySet:
		return "AllocatorAlreadySet"
	case Todo:
		return "Todo"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the error type every fallible model operation returns. It wraps
// a Kind plus a human-readable detail so callers can either pattern-match
// on Kind via errors.Is or print Error() directly.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return "model: " + e.Kind.String()
	}
	return fmt.Sprintf("model: %s: %s", e.Kind, e.Msg)
}

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, model.NewError(model.InvalidItemId, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

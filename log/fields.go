package log

import "go.uber.org/zap"

var (
	Skip       = zap.Skip
	Binary     = zap.Binary
	Bool       = zap.Bool
	ByteString = zap.ByteString
	Float64    = zap.Float64
	Float32    = zap.Float32
	Float      = zap.Float64
	Int        = zap.Int
	Int64      = zap.Int64
	Int32      = zap.Int32
	Uint       = zap.Uint
	Uint64     = zap.Uint64
	String     = zap.String
	Strings    = zap.Strings
	Ints       = zap.Ints
	Float64s   = zap.Float64s
	Reflect    = zap.Reflect
	Namespace  = zap.Namespace
	Stringer   = zap.Stringer
	Time       = zap.Time
	Duration   = zap.Duration
	Any        = zap.Any
	ErrorField = zap.Error
	NamedError = zap.NamedError
	Stack      = zap.Stack
	StackSkip  = zap.StackSkip
	Object     = zap.Object
	Inline     = zap.Inline
	Dict       = zap.Dict
	Info       = std.Info
	Warn       = std.Warn
	Error      = std.Error
	Debug      = std.Debug
	Fatal      = std.Fatal
)

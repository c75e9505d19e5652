// Package failure defines the error kinds surfaced to callers of the reconciler.
//
// Every failure is reported as a human-readable message plus a machine-checkable Kind.
// Kinds are attached with error marks so they survive wrapping with fmt.Errorf or
// errors.Wrap anywhere up the call chain.
//
// # Kinds
//
//   - ValidationError: oversized file or disallowed media type; comparison never starts.
//   - DecodeError: malformed or unparseable content; the decode of that file is aborted.
//   - SelectionError: missing key, empty compare set, or unknown field.
//   - TimeoutError: a run exceeded its wall-clock ceiling.
//   - RuntimeError: anything else raised during a background computation.
//
// # Usage
//
//	err := failure.Validation("file %s is too large", name)
//	if failure.KindOf(err) == failure.KindValidation { ... }
package failure

package zinc

import "github.com/cockroachdb/errors"

// ErrUnsupportedOperation is returned by InsertRequests for any request
// the classifier maps to OTHER — zone-append or any other unrecognized
// operation code (spec §4.1, §7; SPEC_FULL.md §12.2). The source leaves
// such requests to fall through the dispatcher with undefined routing;
// this reimplementation rejects them at insert instead, per spec §9's
// second Open Question.
var ErrUnsupportedOperation = errors.New("zinc: unsupported operation (OTHER), rejected at insert")

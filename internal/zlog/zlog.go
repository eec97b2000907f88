// Package zlog is a small logging façade modeled on the call shape of the
// teacher's pkg/util/log: context-scoped Infof/Warningf/Errorf over
// redactable format strings, with structured tags carried on the context
// via logtags.Buffer (the same library pkg/util/log builds on). It is
// intentionally thin: the scheduler has only a handful of diagnostic call
// sites (spec §3 teardown warning, §7 clamp notices, management admission
// notices, and informational attach/depth/admin lines), so there is no
// need to carry over the teacher's full severity/
// channel/file-sink machinery.
package zlog

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
)

// WithTags returns a context carrying the given key/value tags, rendered
// as a prefix on every log line emitted through it (e.g. device id).
func WithTags(ctx context.Context, kv ...string) context.Context {
	buf := logtags.FromContext(ctx)
	if buf == nil {
		buf = &logtags.Buffer{}
	}
	for i := 0; i+1 < len(kv); i += 2 {
		buf = buf.Add(kv[i], kv[i+1])
	}
	return logtags.WithTags(ctx, buf)
}

func tagPrefix(ctx context.Context) string {
	buf := logtags.FromContext(ctx)
	if buf == nil {
		return ""
	}
	return buf.String() + " "
}

func emit(ctx context.Context, level string, format string, args ...interface{}) {
	msg := redact.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "%s [%s] %s%s\n",
		time.Now().UTC().Format(time.RFC3339Nano), level, tagPrefix(ctx), msg.StripMarkers())
}

// Infof logs an informational message.
func Infof(ctx context.Context, format string, args ...interface{}) {
	emit(ctx, "I", format, args...)
}

// Warningf logs a warning, used for the spec §3 teardown invariant
// violation and §7 out-of-bounds knob clamps.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	emit(ctx, "W", format, args...)
}

// Errorf logs an error.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	emit(ctx, "E", format, args...)
}

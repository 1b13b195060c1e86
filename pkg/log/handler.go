package log

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrFmtHandler decorates records carrying an ErrAttr with the error's
// stacktrace and concrete type.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps handler with an ErrFmtHandler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{handler: handler}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		err, _ = attr.Value.Any().(error)
		return false
	})
	if err != nil {
		r.AddAttrs(slog.String(ErrorTypeKey, errorType(err)))
		if trace := extractStacktrace(err); trace != "" {
			r.AddAttrs(slog.String(StacktraceAttrKey, trace))
		}
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

// extractStacktrace returns the first stack recorded by cockroachdb/errors,
// or "" for errors created without one.
func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

// errorType names the outermost error of the chain that is not a
// cockroachdb/errors wrapper, e.g. "*errors.ValidationError".
func errorType(err error) string {
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		t := reflect.TypeOf(e)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if !strings.HasPrefix(t.PkgPath(), "github.com/cockroachdb/") {
			return fmt.Sprintf("%T", e)
		}
	}
	return fmt.Sprintf("%T", errors.UnwrapAll(err))
}

package bookgen

import (
	"errors"
	"fmt"

	"github.com/yungbote/storybook-backend/internal/platform/httpx"
	"github.com/yungbote/storybook-backend/internal/platform/openai"
)

// IllustrationKind says how the pipeline may react to a failed illustration.
type IllustrationKind int

const (
	// KindFatal aborts the book.
	KindFatal IllustrationKind = iota
	// KindTransient also aborts the book. Retries belong to the transport.
	KindTransient
	// KindSafetyRejection earns one attempt with the fallback prompt.
	KindSafetyRejection
)

func (k IllustrationKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindSafetyRejection:
		return "safety_rejection"
	default:
		return "fatal"
	}
}

type IllustrationError struct {
	Kind IllustrationKind
	Op   string
	Err  error
}

func (e *IllustrationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: illustration failed (%s)", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: illustration failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *IllustrationError) Unwrap() error { return e.Err }

// ClassifyIllustrationError tags an upstream image failure.
func ClassifyIllustrationError(err error) IllustrationKind {
	switch {
	case err == nil:
		return KindFatal
	case openai.IsContentPolicyViolation(err):
		return KindSafetyRejection
	case httpx.IsRetryableError(err):
		return KindTransient
	default:
		return KindFatal
	}
}

func IsSafetyRejection(err error) bool {
	var ie *IllustrationError
	return errors.As(err, &ie) && ie.Kind == KindSafetyRejection
}

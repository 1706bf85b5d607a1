package plan

import "github.com/pkg/errors"

// IsGateError reports whether err (or its cause) is a LimitError or a FeatureError.
func IsGateError(err error) bool {
	switch errors.Cause(err).(type) {
	case *LimitError, *FeatureError:
		return true
	}
	return false
}

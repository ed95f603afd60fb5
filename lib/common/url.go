package common

import (
	"strings"

	"boscoin.io/benor/lib/errors"
)

var (
	TrueQueryStringValue  []string = []string{"true", "yes", "1"}
	FalseQueryStringValue []string = []string{"false", "no", "0"}
)

// ParseBoolQueryString will parse boolean value from url.Value or the
// environment. 'true', '1', 'yes' are `true` and 'false', '0', 'no' are
// `false`; anything else is `errors.InvalidQueryString`.
func ParseBoolQueryString(v string) (yesno bool, err error) {
	if _, yesno = InStringArray(TrueQueryStringValue, strings.ToLower(v)); yesno {
		return
	}
	if _, ok := InStringArray(FalseQueryStringValue, strings.ToLower(v)); ok {
		yesno = false
		return
	}

	err = errors.InvalidQueryString.Clone().SetData("value", v)
	return
}

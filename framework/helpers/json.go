package helpers

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-test-helpers/v2/jsonhelpers"
)

// AsJSONValue marshals any value and returns it as an ldvalue.Value, which is the most
// convenient form for inspecting arbitrary response bodies in tests.
func AsJSONValue(value interface{}) ldvalue.Value { return ldvalue.Parse(jsonhelpers.ToJSON(value)) }

// CanonicalizedJSONString reformats JSON so that object properties are alphabetized. Input that
// is not valid JSON is returned unchanged.
func CanonicalizedJSONString(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if !ldvalue.Parse(data).IsDefined() {
		return string(data)
	}
	return string(jsonhelpers.CanonicalizeJSON(data))
}

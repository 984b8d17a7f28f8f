package main

import (
	masker "github.com/goliatone/go-masker"
)

// filledMask is shown when the masker rejects a value.
const filledMask = "********"

// maskValue hides all but the first and last two characters of a secret.
func maskValue(value string) string {
	if value == "" {
		return ""
	}
	masked, err := masker.Default.String("preserveEnds(2,2)", value)
	if err != nil {
		return filledMask
	}
	return masked
}

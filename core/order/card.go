package order

import (
	"strconv"
	"strings"
)

// ValidCard implements the simulated payment check: the trimmed number must
// be numeric, shorter than nine digits, not a multiple of ten and even. This
// stands in for a payment gateway and is not a real card validation.
func ValidCard(number string) bool {
	number = strings.TrimSpace(number)

	n, err := strconv.ParseInt(number, 10, 64)
	if err != nil {
		return false
	}

	return len(number) < 9 && n%10 != 0 && n%2 == 0
}

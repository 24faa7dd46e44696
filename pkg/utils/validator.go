package utils

import (
	"fmt"
	"regexp"
)

var requestNumberPattern = regexp.MustCompile(`^CR-\d{4}-\d{3,}$`)

// ValidateRequestNumber validates a change request number (CR-<year>-<seq>)
func ValidateRequestNumber(number string) error {
	if !requestNumberPattern.MatchString(number) {
		return fmt.Errorf("invalid request number format: %s", number)
	}
	return nil
}

// ValidateCostImpact validates an estimated cost impact figure
func ValidateCostImpact(amount float64) error {
	if amount < 0 {
		return fmt.Errorf("cost impact must not be negative: %.2f", amount)
	}
	if amount > 10000000 {
		return fmt.Errorf("cost impact exceeds maximum limit: %.2f", amount)
	}
	return nil
}

// ValidateScheduleDays validates an estimated schedule impact
func ValidateScheduleDays(days int) error {
	if days < 0 {
		return fmt.Errorf("schedule impact must not be negative: %d", days)
	}
	return nil
}

// SanitizeString removes control characters from user-supplied text
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}

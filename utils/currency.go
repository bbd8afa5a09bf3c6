package utils

import "fmt"

// FormatAmount renders a monetary value with two decimals for user-facing
// messages, e.g. 20.0 -> "$20.00".
func FormatAmount(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

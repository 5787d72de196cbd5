package razorpay

import "fmt"

// Razorpay amounts are integers in the smallest currency unit (paisa for INR).
// The booking core stores paisa end to end, so no float conversion happens
// past the input boundary.

const PaisaPerRupee = 100

// RupeesToPaisa converts a whole-rupee amount to paisa
func RupeesToPaisa(rupees int64) int64 {
	return rupees * PaisaPerRupee
}

// FormatPaisa renders a paisa amount as a rupee string, e.g. 100050 -> "1000.50"
func FormatPaisa(paisa int64) string {
	sign := ""
	if paisa < 0 {
		sign = "-"
		paisa = -paisa
	}
	return fmt.Sprintf("%s%d.%02d", sign, paisa/PaisaPerRupee, paisa%PaisaPerRupee)
}

package wage

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatRupees renders an amount with Indian digit grouping, e.g. ₹1,25,000
// or ₹99.50. Paise are shown only when non-zero.
func FormatRupees(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole := d.Truncate(0)
	frac := d.Sub(whole)

	digits := whole.String()
	grouped := digits
	if len(digits) > 3 {
		head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		if head != "" {
			parts = append([]string{head}, parts...)
		}
		grouped = strings.Join(append(parts, tail), ",")
	}

	if paise := frac.Shift(2).IntPart(); paise != 0 {
		grouped += fmt.Sprintf(".%02d", paise)
	}
	return sign + "₹" + grouped
}

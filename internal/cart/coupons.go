package cart

import "strings"

// couponTable maps coupon codes to their percentage discount. The table is
// static; codes are matched case-insensitively by uppercasing the input.
var couponTable = map[string]int{
	"DESAIN10":  10,
	"UMKM20":    20,
	"WELCOME15": 15,
}

// LookupCoupon resolves a coupon code to its discount percent.
func LookupCoupon(code string) (int, bool) {
	discount, ok := couponTable[strings.ToUpper(strings.TrimSpace(code))]
	return discount, ok
}

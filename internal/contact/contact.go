// Package contact derives a usable external contact channel (WhatsApp link
// or email) from the contact fields stored on an item.
package contact

import "strings"

// DefaultCountryCode replaces a leading zero in local phone numbers.
const DefaultCountryCode = "+234"

// WhatsAppScheme tags normalized phone values in freeform contact input.
const WhatsAppScheme = "whatsapp:"

// CleanContactInfo normalizes freeform contact input at submission time.
// Email addresses (anything containing '@') pass through unchanged. Phone
// numbers are stripped of separators, get DefaultCountryCode in place of a
// leading zero (or a '+' prefix if missing), and are tagged with the
// whatsapp: scheme so the stored value is self-describing.
func CleanContactInfo(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.Contains(v, "@") {
		return v
	}

	digits := stripSeparators(v)
	switch {
	case strings.HasPrefix(digits, "0"):
		digits = DefaultCountryCode + digits[1:]
	case !strings.HasPrefix(digits, "+"):
		digits = "+" + digits
	}
	return WhatsAppScheme + digits
}

// WhatsAppLink builds a wa.me link from a stored phone number. Every
// character except digits and a leading '+' is dropped.
func WhatsAppLink(phone string) string {
	return "https://wa.me/" + stripSeparators(strings.TrimSpace(phone))
}

// IsEmail reports whether a stored contact value is an email address.
func IsEmail(v string) bool {
	return strings.Contains(v, "@")
}

// stripSeparators removes everything except digits, keeping a '+' only in
// the leading position.
func stripSeparators(v string) string {
	var b strings.Builder
	for i, r := range v {
		if r >= '0' && r <= '9' || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

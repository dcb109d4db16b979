package lib

import "strings"

// NormalizeEmail trims surrounding whitespace and lower-cases the domain part. The local
// part is kept as given since mail servers may treat it case-sensitively.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	return local + "@" + strings.ToLower(domain)
}

package utils

import (
	"net/url"
	"strings"
)

// ObfuscateHeader returns an obfuscated Authorization header,
// showing only the auth scheme, first 2 and last 2 characters of the token.
// Example: "Basic dZ*********X1" or "Bearer ab******yz"
func ObfuscateHeader(auth string) string {
	if auth == "" {
		return ""
	}

	scheme, token, ok := strings.Cut(auth, " ")
	if !ok {
		return "[invalid header]"
	}
	return scheme + " " + MaskToken(strings.TrimSpace(token))
}

// MaskToken keeps the first and last two characters of s and stars the rest.
// Tokens of four characters or less are fully masked.
func MaskToken(s string) string {
	n := len(s)
	if n <= 4 {
		return strings.Repeat("*", n)
	}
	return s[:2] + strings.Repeat("*", n-4) + s[n-2:]
}

// NormalizeRoutePrefix returns "" or "/prefix" from input, accepting raw paths or full URLs.
func NormalizeRoutePrefix(input string) string {
	s := strings.TrimSpace(input)
	if s == "" || s == "/" {
		return ""
	}
	// If someone passes a full URL, keep only the .Path.
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil {
			s = u.Path
		}
	}
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	if s == "/" {
		return ""
	}
	return s
}

// EmailDomainLabel returns the first DNS label of the email host ("a@acme.com" -> "acme").
func EmailDomainLabel(email string) string {
	_, host, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	label, _, _ := strings.Cut(strings.TrimSpace(host), ".")
	return strings.ToLower(label)
}

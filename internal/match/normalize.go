package match

import (
	"strings"
	"unicode"
)

// NormalizeIdent folds an identifier to lowercase and strips separators so
// that "OrderID", "order_id" and "orderId" compare equal.
func NormalizeIdent(s string) string {
	return strings.ToLower(strings.Join(tokenizeCamelCase(s), ""))
}

// NormalizeIdentWithSuffixStrip normalizes and strips one trailing
// id/ids/at/utc/timestamp token.
func NormalizeIdentWithSuffixStrip(s string) string {
	normalized := NormalizeIdent(s)

	// longer first
	for _, suffix := range []string{"timestamp", "ids", "utc", "id", "at"} {
		if strings.HasSuffix(normalized, suffix) && len(normalized) > len(suffix) {
			return strings.TrimSuffix(normalized, suffix)
		}
	}

	return normalized
}

// SnakeCase renders an identifier as a lower_snake_case column name:
// "OwnerID" becomes "owner_id" and "HTTPStatus" becomes "http_status".
func SnakeCase(s string) string {
	return strings.Join(TokenizeIdent(s), "_")
}

// tokenizeCamelCase splits an identifier at separators, at lower to upper
// transitions and before the last capital of an acronym:
// "getHTTPResponse" gives ["get", "HTTP", "Response"].
func tokenizeCamelCase(s string) []string {
	var tokens []string

	runes := []rune(s)
	start := -1

	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			if start >= 0 {
				tokens = append(tokens, string(runes[start:i]))
				start = -1
			}
		case start < 0:
			start = i
		case wordStart(runes, i):
			tokens = append(tokens, string(runes[start:i]))
			start = i
		}
	}

	if start >= 0 {
		tokens = append(tokens, string(runes[start:]))
	}

	return tokens
}

func wordStart(runes []rune, i int) bool {
	if !unicode.IsUpper(runes[i]) {
		return false
	}

	nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

	return !unicode.IsUpper(runes[i-1]) || nextLower
}

// TokenizeIdent splits an identifier into lowercase tokens.
func TokenizeIdent(s string) []string {
	tokens := tokenizeCamelCase(s)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}

	return tokens
}

// Package validate rejects structurally invalid input before any expensive
// work happens. The rules mirror what the mobile client is allowed to send:
// one image (data URI, URL, or raw base64) and an optional city name.
package validate

import (
	"errors"
	"regexp"
	"strings"
)

// SentinelCity substitutes for an absent city. It is not an error to omit
// the city; the prompt simply tells the model the location is unknown.
const SentinelCity = "Unknown Location"

var (
	ErrNoImage     = errors.New("no image data provided")
	ErrImageTooBig = errors.New("image too large")
	ErrImageFormat = errors.New("invalid image format, provide base64 or URL")
	ErrCityTooLong = errors.New("city name too long")
	ErrCityInvalid = errors.New("invalid characters in city name")
)

var (
	// First 100 characters of a raw base64 payload.
	rawBase64Rx = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)
	// A complete markup tag anywhere in the city is an injection attempt,
	// not a typo, and rejects outright.
	markupTagRx = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	// Runes permitted in place names.
	cityRuneRx = regexp.MustCompile(`[a-zA-Z\s\-',.]`)
)

// ImageData checks that s is non-empty, within the encoded size bound, and
// recognizable as an image payload. maxBytes is the binary cap; base64
// inflates by roughly a third, so the encoded allowance is maxBytes*1.4.
func ImageData(s string, maxBytes int) error {
	if strings.TrimSpace(s) == "" {
		return ErrNoImage
	}
	if len(s) > maxBytes+maxBytes*2/5 {
		return ErrImageTooBig
	}

	isDataURI := strings.HasPrefix(s, "data:image/")
	isURL := strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
	head := s
	if len(head) > 100 {
		head = head[:100]
	}
	if !isDataURI && !isURL && !rawBase64Rx.MatchString(head) {
		return ErrImageFormat
	}
	return nil
}

// City sanitizes a place name. Absent input substitutes SentinelCity.
// Strings containing a markup tag, or containing no permitted characters
// at all, are rejected; otherwise runes outside the permitted class are
// stripped and the remainder is accepted.
func City(s string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return SentinelCity, nil
	}
	if len(trimmed) > maxLen {
		return "", ErrCityTooLong
	}
	if markupTagRx.MatchString(trimmed) {
		return "", ErrCityInvalid
	}

	var b strings.Builder
	for _, r := range trimmed {
		if cityRuneRx.MatchString(string(r)) {
			b.WriteRune(r)
		}
	}
	sanitized := strings.TrimSpace(b.String())
	if sanitized == "" {
		return "", ErrCityInvalid
	}
	return sanitized, nil
}

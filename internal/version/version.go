// Package version implements the client build gate.
//
// Client builds identify themselves with a five-segment dotted string
// MM.DD.YY.HH.mm. The gate compares it segment by segment against the
// configured minimum and fails closed: anything missing or malformed is
// treated as outdated.
package version

import (
	"strconv"
	"strings"
)

const segments = 5

// parse splits a dotted version into integer segments. Missing trailing
// segments compare as 0; a non-integer segment is an error.
func parse(v string) ([segments]int, error) {
	var out [segments]int
	parts := strings.Split(strings.TrimSpace(v), ".")
	for i := 0; i < segments && i < len(parts); i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return out, err
		}
		out[i] = n
	}
	return out, nil
}

// Outdated reports whether client is below minimum. The comparison is
// most-significant-segment first and the boundary is inclusive: a client
// equal to the minimum is current. An empty or malformed client string is
// outdated, and a malformed minimum also rejects (fail-closed).
func Outdated(client, minimum string) bool {
	if strings.TrimSpace(client) == "" {
		return true
	}
	c, err := parse(client)
	if err != nil {
		return true
	}
	m, err := parse(minimum)
	if err != nil {
		return true
	}
	for i := 0; i < segments; i++ {
		if c[i] < m[i] {
			return true
		}
		if c[i] > m[i] {
			return false
		}
	}
	return false
}

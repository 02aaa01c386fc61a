package common

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// QueryList returns the values of a repeatable query parameter.
// Each occurrence may also hold a comma separated list; blanks are dropped.
func QueryList(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// QueryValues returns the values of a repeatable query parameter without splitting them.
// Use it for free text such as player names, which may contain commas.
func QueryValues(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		if v := strings.TrimSpace(raw); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// QueryNonNegativeFloat parses an optional numeric query parameter.
// It returns nil when the parameter is absent.
func QueryNonNegativeFloat(r *http.Request, name string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	if f < 0 {
		return nil, fmt.Errorf("%s must not be negative", name)
	}
	return &f, nil
}

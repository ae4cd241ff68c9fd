package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sort"
	"strconv"
)

// validate checks that the body holds exactly the given field set: every
// field present and non-falsy, nothing extra. It reports the first
// offender only, required fields in declaration order first.
func validate(body map[string]any, fields []string) (string, bool) {
	for _, field := range fields {
		if isEmpty(body[field]) {
			return field + " is missing", false
		}
	}

	keys := make([]string, 0, len(body))
	for key := range body {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !slices.Contains(fields, key) {
			return key + " is not necessary", false
		}
	}

	return "", true
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	}
	return false
}

// requireFields decodes the JSON body, runs the exact-field-set check
// and hands the decoded map to the wrapped handler.
func (s *APIServer) requireFields(fields []string, next func(http.ResponseWriter, *http.Request, map[string]any)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
			respondError(w, http.StatusBadRequest, errBadRequest, "data is not in json format")
			return
		}

		if message, ok := validate(body, fields); !ok {
			respondError(w, http.StatusBadRequest, errBadRequest, message)
			return
		}

		next(w, r, body)
	}
}

func stringField(body map[string]any, field string) string {
	value, _ := body[field].(string)
	return value
}

// amountField accepts a JSON number or a numeric string. The amount must
// be strictly positive.
func amountField(body map[string]any) (float64, error) {
	switch v := body["amount"].(type) {
	case float64:
		if v > 0 {
			return v, nil
		}
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f, nil
		}
	}
	return 0, errors.New("amount must be a positive number")
}

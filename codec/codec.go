// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package codec stores ordered string lists (question options and
// multi-select answers) as JSON array text.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNotList = errors.New("stored value is not a list")

// EncodeList serializes items as a JSON array. A nil slice encodes as "[]".
func EncodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

// DecodeList parses a JSON array of strings. Anything else is an error
// wrapping ErrNotList; callers decide how to degrade.
func DecodeList(s string) ([]string, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, ErrNotList
	}

	var items []string
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotList, err)
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

// Package settings defines the admin-configured metadata selection record
// and its persistence. One record exists per store; saves replace the whole
// record, there are no partial patch semantics.
package settings

import (
	"strings"

	"stripemeta-proxy/internal/model"
)

// OptionName is the storage key for the settings record.
// Matches the option name the store-side plugin has always used, so an
// operator can migrate an existing configuration verbatim.
const OptionName = "wc_stripe_custom_meta_settings"

// MultiProductMethod selects how per-product metadata from multi-item
// orders is combined.
type MultiProductMethod string

const (
	// MethodDelimited emits one entry per field with per-item values
	// joined by commas (e.g. product_sku = "ABC,XYZ").
	MethodDelimited MultiProductMethod = "delimited"

	// MethodNumberedKeys emits one entry per item per field
	// (e.g. product_1_sku, product_2_sku).
	MethodNumberedKeys MultiProductMethod = "numbered_keys"
)

// Valid reports whether m is one of the two supported methods.
func (m MultiProductMethod) Valid() bool {
	return m == MethodDelimited || m == MethodNumberedKeys
}

// Pair is a static key/value entry always attached to payment intents.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Settings is the full configuration record. Field identifier lists refer
// to catalog identifiers; stale identifiers (e.g. a removed product
// attribute) are tolerated and simply resolve to no value at apply time.
type Settings struct {
	MultiProductMethod   MultiProductMethod `json:"multi_product_method,omitempty"`
	CartMetadata         []string           `json:"cart_metadata,omitempty"`
	UserMetadata         []string           `json:"user_metadata,omitempty"`
	ProductMetadata      []string           `json:"product_metadata,omitempty"`
	ProductCustomFields  []string           `json:"product_custom_fields,omitempty"`
	SubscriptionMetadata []string           `json:"subscription_metadata,omitempty"`
	StaticMetadata       []Pair             `json:"static_metadata,omitempty"`
}

// Method returns the configured multi-product method, falling back to
// delimited for empty or unrecognized values.
func (s *Settings) Method() MultiProductMethod {
	if s != nil && s.MultiProductMethod.Valid() {
		return s.MultiProductMethod
	}
	return MethodDelimited
}

// IsEmpty reports whether the record selects nothing at all.
// An empty record makes the assembler a pass-through.
func (s *Settings) IsEmpty() bool {
	if s == nil {
		return true
	}
	return len(s.CartMetadata) == 0 &&
		len(s.UserMetadata) == 0 &&
		len(s.ProductMetadata) == 0 &&
		len(s.ProductCustomFields) == 0 &&
		len(s.SubscriptionMetadata) == 0 &&
		len(s.StaticMetadata) == 0
}

// Sanitize returns a cleaned copy of in, ready to persist.
//
// Field identifier lists are run through SanitizeKey with empty results
// dropped. Static pairs are kept only when both key and value are non-empty
// after trimming, with the key capped at 40 and the value at 500
// characters. An unrecognized multi-product method is discarded so the
// default (or previously saved value, on merge-free wholesale replace)
// applies instead.
func Sanitize(in *Settings) *Settings {
	if in == nil {
		return &Settings{}
	}

	out := &Settings{
		CartMetadata:         sanitizeKeyList(in.CartMetadata),
		UserMetadata:         sanitizeKeyList(in.UserMetadata),
		ProductMetadata:      sanitizeKeyList(in.ProductMetadata),
		ProductCustomFields:  sanitizeKeyList(in.ProductCustomFields),
		SubscriptionMetadata: sanitizeKeyList(in.SubscriptionMetadata),
	}

	if in.MultiProductMethod.Valid() {
		out.MultiProductMethod = in.MultiProductMethod
	}

	for _, p := range in.StaticMetadata {
		key := strings.TrimSpace(p.Key)
		value := strings.TrimSpace(p.Value)
		if key == "" || value == "" {
			continue
		}
		out.StaticMetadata = append(out.StaticMetadata, Pair{
			Key:   truncate(key, model.MaxMetadataKeyLen),
			Value: truncate(value, model.MaxMetadataValueLen),
		})
	}

	return out
}

// SanitizeKey normalizes a field identifier or static key: lower-cased with
// everything except [a-z0-9_-] stripped. Mirrors the key form the store
// platform persists, so selections round-trip unchanged.
func SanitizeKey(key string) string {
	key = strings.ToLower(key)
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func sanitizeKeyList(keys []string) []string {
	var out []string
	for _, k := range keys {
		if clean := SanitizeKey(k); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

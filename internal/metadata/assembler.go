// Package metadata assembles payment intent metadata from an order and
// the admin-selected field configuration.
//
// Assembly is staged: order fields, then customer fields, then per-product
// fields, then static pairs, then subscription fields, and finally a
// validation pass that enforces the processor's key, value and entry
// limits. Entries already present on the intent are preserved and count
// against the entry cap.
package metadata

import (
	"fmt"
	"strings"

	"stripemeta-proxy/internal/model"
	"stripemeta-proxy/internal/settings"
	"stripemeta-proxy/internal/subscriptions"
)

// Per-item value caps for custom product fields. Multi-product orders
// multiply these values into a single entry, so they are kept well under
// the processor's 500-character value limit.
const (
	numberedCustomValueLen  = 100
	delimitedCustomValueLen = 50
)

// Assembler builds the metadata map for a payment intent.
type Assembler struct {
	detector *subscriptions.Detector
}

// NewAssembler returns an Assembler. detector may wrap a nil provider,
// in which case the subscription stage contributes nothing.
func NewAssembler(detector *subscriptions.Detector) *Assembler {
	if detector == nil {
		detector = subscriptions.NewDetector(nil)
	}
	return &Assembler{detector: detector}
}

// Assemble merges configured metadata into existing and returns the
// validated result. existing is never mutated. When the configuration is
// empty, or existing already holds the maximum number of entries, existing
// is returned as-is with no validation applied: entries the caller already
// attached are not second-guessed.
//
// user may be nil; the customer stage is skipped for guest orders either
// way. Assemble never fails — fields that cannot be resolved are skipped
// so a stale configuration can not block a payment.
func (a *Assembler) Assemble(existing map[string]string, order model.Order, user model.User, s *settings.Settings) map[string]string {
	if s.IsEmpty() {
		return existing
	}
	if len(existing) >= model.MaxMetadataEntries {
		return existing
	}

	b := newBuilder(existing)

	a.addCartFields(b, order, s)
	a.addUserFields(b, order, user, s)
	a.addProductFields(b, order, s)
	a.addStaticFields(b, s)
	a.addSubscriptionFields(b, order, s)

	return validate(b)
}

// add inserts a key unless doing so would grow the map past the entry
// cap. Overwrites of a key that is already present are always allowed.
func (a *Assembler) add(b *builder, key, value string) {
	if _, present := b.values[key]; !present && b.Len() >= model.MaxMetadataEntries {
		return
	}
	b.Set(key, value)
}

// === Order stage ===

func (a *Assembler) addCartFields(b *builder, order model.Order, s *settings.Settings) {
	if order == nil {
		return
	}
	for _, field := range s.CartMetadata {
		if value, ok := cartFieldValue(field, order); ok {
			a.add(b, field, value)
		}
	}
}

// === Customer stage ===

func (a *Assembler) addUserFields(b *builder, order model.Order, user model.User, s *settings.Settings) {
	if order == nil || order.UserID() == 0 || user == nil {
		return
	}
	for _, field := range s.UserMetadata {
		value := user.MetaValue(field)
		if value == "" {
			continue
		}
		a.add(b, field, value)
	}
}

// === Product stage ===

func (a *Assembler) addProductFields(b *builder, order model.Order, s *settings.Settings) {
	if order == nil {
		return
	}
	if len(s.ProductMetadata) == 0 && len(s.ProductCustomFields) == 0 {
		return
	}
	switch s.Method() {
	case settings.MethodNumberedKeys:
		a.addNumberedProductFields(b, order, s)
	default:
		a.addDelimitedProductFields(b, order, s)
	}
}

// addNumberedProductFields emits one key per product per field,
// product_1_sku, product_2_sku and so on. Line items whose product can
// no longer be resolved do not consume a position.
func (a *Assembler) addNumberedProductFields(b *builder, order model.Order, s *settings.Settings) {
	n := 0
	for _, item := range order.Items() {
		product := item.Product()
		if product == nil {
			continue
		}
		n++
		for _, field := range s.ProductMetadata {
			value, ok := productFieldValue(field, product, item)
			if !ok || value == "" {
				continue
			}
			suffix := strings.TrimPrefix(field, "product_")
			a.add(b, fmt.Sprintf("product_%d_%s", n, suffix), value)
		}
		for _, field := range s.ProductCustomFields {
			value := product.MetaValue(field)
			if value == "" {
				continue
			}
			a.add(b, fmt.Sprintf("product_%d_meta_%s", n, field), truncate(value, numberedCustomValueLen))
		}
	}
}

// addDelimitedProductFields emits one key per field with the per-product
// values joined by commas, in line item order.
func (a *Assembler) addDelimitedProductFields(b *builder, order model.Order, s *settings.Settings) {
	collected := newBuilder(nil)
	appendValue := func(field, value string) {
		if prev, ok := collected.values[field]; ok {
			collected.Set(field, prev+","+value)
		} else {
			collected.Set(field, value)
		}
	}

	for _, item := range order.Items() {
		product := item.Product()
		if product == nil {
			continue
		}
		for _, field := range s.ProductMetadata {
			value, ok := productFieldValue(field, product, item)
			if !ok || value == "" {
				continue
			}
			appendValue(field, value)
		}
		for _, field := range s.ProductCustomFields {
			value := product.MetaValue(field)
			if value == "" {
				continue
			}
			appendValue("meta_"+field, truncate(value, delimitedCustomValueLen))
		}
	}

	collected.Each(func(field, joined string) bool {
		key := field
		if !strings.HasPrefix(key, "product_") && !strings.HasPrefix(key, "meta_") {
			key = "product_" + key
		}
		a.add(b, key, joined)
		return true
	})
}

// === Static stage ===

func (a *Assembler) addStaticFields(b *builder, s *settings.Settings) {
	for _, pair := range s.StaticMetadata {
		key := settings.SanitizeKey(pair.Key)
		if key == "" || pair.Value == "" {
			continue
		}
		a.add(b, key, pair.Value)
	}
}

// === Subscription stage ===

func (a *Assembler) addSubscriptionFields(b *builder, order model.Order, s *settings.Settings) {
	if order == nil || len(s.SubscriptionMetadata) == 0 || !a.detector.Active() {
		return
	}
	subs := a.detector.SubscriptionsForOrder(order, subscriptions.RelationAny)
	if len(subs) == 0 {
		return
	}
	sub := subs[0]
	for _, field := range s.SubscriptionMetadata {
		value := subscriptions.FieldValue(sub, field)
		if value == "" {
			continue
		}
		a.add(b, field, value)
	}
}

// === Validation ===

// validate enforces the processor limits on the assembled entries: keys
// are capped at 40 characters with square brackets removed, values at
// 500 characters, entries with an empty key or value are dropped, and at
// most 50 entries survive, in assembly order.
func validate(b *builder) map[string]string {
	out := newBuilder(nil)
	b.Each(func(key, value string) bool {
		key = strings.NewReplacer("[", "", "]", "").Replace(truncate(key, model.MaxMetadataKeyLen))
		value = truncate(value, model.MaxMetadataValueLen)
		if key == "" || value == "" {
			return true
		}
		if _, present := out.values[key]; !present && out.Len() >= model.MaxMetadataEntries {
			return false
		}
		out.Set(key, value)
		return true
	})
	return out.Map()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

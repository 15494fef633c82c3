// Package auth verifies callers of the proxy's write surface.
//
// Two mechanisms stack:
//
//   - A bearer token on every admin request (settings writes, intent
//     updates). Compared in constant time.
//   - A signed anti-forgery header on mutations, X-Meta-Nonce, carrying
//     an RFC 8941 dictionary: sig=:<base64 hmac>:;ts=<unix seconds>.
//     The signature is HMAC-SHA256 over "<method>\n<path>\n<ts>" with a
//     shared secret, and the timestamp must be within a freshness window.
//     This mirrors the nonce the host platform requires on its own admin
//     mutations, so a leaked admin URL alone cannot replay a settings
//     write.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dunglas/httpsfv"
)

// NonceHeader carries the anti-forgery dictionary on mutation requests.
const NonceHeader = "X-Meta-Nonce"

// DefaultFreshness is how far a nonce timestamp may drift from now.
const DefaultFreshness = 5 * time.Minute

// Verifier checks admin credentials and mutation nonces.
type Verifier struct {
	token     string
	secret    []byte
	freshness time.Duration
	now       func() time.Time
}

// NewVerifier creates a Verifier. token authorizes admin requests; secret
// signs mutation nonces. freshness <= 0 selects DefaultFreshness.
func NewVerifier(token string, secret []byte, freshness time.Duration) *Verifier {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &Verifier{token: token, secret: secret, freshness: freshness, now: time.Now}
}

// CheckToken verifies a bearer Authorization header value.
func (v *Verifier) CheckToken(authorization string) error {
	presented, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok {
		return errors.New("missing bearer token")
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(v.token)) != 1 {
		return errors.New("invalid token")
	}
	return nil
}

// CheckNonce verifies the X-Meta-Nonce header for a mutation request.
// Format: sig=:<base64 HMAC-SHA256>:;ts=<unix seconds> (RFC 8941).
func (v *Verifier) CheckNonce(header, method, path string) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return errors.New("missing nonce header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return fmt.Errorf("invalid nonce header: %w", err)
	}

	sig, err := dictBytes(dict, "sig")
	if err != nil {
		return err
	}
	ts, err := dictInt(dict, "ts")
	if err != nil {
		return err
	}

	issued := time.Unix(ts, 0)
	if drift := v.now().Sub(issued).Abs(); drift > v.freshness {
		return fmt.Errorf("nonce expired: issued %s ago", drift.Round(time.Second))
	}

	if !hmac.Equal(sig, v.sign(method, path, ts)) {
		return errors.New("nonce signature mismatch")
	}
	return nil
}

// Nonce produces a header value a client can present for a mutation.
// Used by the operator CLI and by tests.
func (v *Verifier) Nonce(method, path string) string {
	ts := v.now().Unix()
	dict := httpsfv.NewDictionary()
	dict.Add("sig", httpsfv.NewItem(v.sign(method, path, ts)))
	dict.Add("ts", httpsfv.NewItem(ts))
	value, err := httpsfv.Marshal(dict)
	if err != nil {
		// Only reachable with a corrupt dictionary, which we just built.
		panic(err)
	}
	return value
}

func (v *Verifier) sign(method, path string, ts int64) []byte {
	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%s\n%s\n%d", method, path, ts)
	return mac.Sum(nil)
}

func dictBytes(dict *httpsfv.Dictionary, key string) ([]byte, error) {
	member, ok := dict.Get(key)
	if !ok {
		return nil, fmt.Errorf("%s key not found in nonce header", key)
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return nil, fmt.Errorf("%s value must be an item", key)
	}
	b, ok := item.Value.([]byte)
	if !ok {
		return nil, fmt.Errorf("%s value must be a byte sequence", key)
	}
	return b, nil
}

func dictInt(dict *httpsfv.Dictionary, key string) (int64, error) {
	member, ok := dict.Get(key)
	if !ok {
		return 0, fmt.Errorf("%s key not found in nonce header", key)
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return 0, fmt.Errorf("%s value must be an item", key)
	}
	switch n := item.Value.(type) {
	case int64:
		return n, nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s value must be an integer", key)
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("%s value must be an integer", key)
}

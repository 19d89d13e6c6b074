package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// Keys whose values never reach the log.
var secretKeyParts = []string{
	"token", "authorization", "password", "secret", "cookie", "api_key", "apikey",
	"card_number", "cardnumber", "card_pan", "cvv", "cvc", "track_data",
}

// Keys whose values are logged as a salted digest so they stay correlatable.
var hashedKeyParts = []string{
	"principal", "user_id", "idempotency_key", "customer_email", "customer_phone",
}

// 13 to 19 consecutive digits, optionally split by spaces or dashes.
var panLike = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)

type scrubber struct {
	enabled bool
	salt    string
}

func (s *scrubber) pairs(kv []interface{}) []interface{} {
	if s == nil || !s.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i+1 == len(kv) {
			out = append(out, kv[i])
			break
		}
		key := fmt.Sprint(kv[i])
		out = append(out, key, s.value(strings.ToLower(strings.TrimSpace(key)), kv[i+1]))
	}
	return out
}

func (s *scrubber) value(key string, v interface{}) interface{} {
	switch {
	case key != "" && matchesAny(key, secretKeyParts):
		return redacted
	case key != "" && matchesAny(key, hashedKeyParts):
		return s.digest(v)
	}
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, inner := range t {
			out[k] = s.value(strings.ToLower(k), inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, inner := range t {
			out[i] = s.value("", inner)
		}
		return out
	case string:
		if looksLikeJWT(t) {
			return redacted
		}
		return maskPANs(t)
	case error:
		return maskPANs(t.Error())
	}
	return v
}

func (s *scrubber) digest(v interface{}) string {
	raw := strings.TrimSpace(fmt.Sprint(v))
	if v == nil || raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func matchesAny(key string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(key, p) {
			return true
		}
	}
	return false
}

// maskPANs keeps only the last four digits of anything shaped like a card number.
func maskPANs(s string) string {
	return panLike.ReplaceAllStringFunc(s, func(m string) string {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, m)
		return "****" + digits[len(digits)-4:]
	})
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

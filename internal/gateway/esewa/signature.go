package esewa

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Sign computes the base64 HMAC-SHA256 signature over the canonical
// "field=value,field=value,..." string built from the fields the gateway
// declared as signed, in declaration order.
func Sign(secret, signedFieldNames string, fields map[string]string) string {
	names := strings.Split(signedFieldNames, ",")
	parts := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		parts = append(parts, n+"="+fields[n])
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, ",")))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the signature and compares it to the one the
// gateway supplied.
func VerifySignature(secret, signedFieldNames string, fields map[string]string, signature string) bool {
	expected := Sign(secret, signedFieldNames, fields)
	return hmac.Equal([]byte(expected), []byte(signature))
}

package messaging

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the platform's HMAC of a page webhook body.
const SignatureHeader = "X-Hub-Signature-256"

const signaturePrefix = "sha256="

// VerifySignature checks header ("sha256=<hex>") against the HMAC-SHA256 of
// body keyed with appSecret. An empty or malformed header fails.
func VerifySignature(body []byte, header, appSecret string) bool {
	sig, ok := strings.CutPrefix(header, signaturePrefix)
	if !ok || sig == "" {
		return false
	}
	expected := computeHMAC(body, appSecret)
	return hmac.Equal([]byte(strings.ToLower(sig)), []byte(expected))
}

// SignBody returns the header value the platform would send for body.
func SignBody(body []byte, appSecret string) string {
	return signaturePrefix + computeHMAC(body, appSecret)
}

func computeHMAC(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

// SessionCookie is the name of the signed login cookie.
const SessionCookie = "session"

// secretKey signs session cookies. Overridden at startup via SetSecret.
var secretKey = []byte("dev-secret-change-me")

func SetSecret(secret string) {
	if secret != "" {
		secretKey = []byte(secret)
	}
}

// Sign produces a tamper-evident cookie value "base64(value)|base64(mac)".
func Sign(value string) string {
	return base64.URLEncoding.EncodeToString([]byte(value)) + "|" +
		base64.URLEncoding.EncodeToString(sign(value))
}

// Verify checks the signature and returns the embedded value.
func Verify(signedValue string) (string, error) {
	encoded, macEncoded, found := strings.Cut(signedValue, "|")
	if !found {
		return "", errors.New("invalid cookie format")
	}

	valueBytes, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.New("invalid value encoding")
	}
	mac, err := base64.URLEncoding.DecodeString(macEncoded)
	if err != nil {
		return "", errors.New("invalid signature encoding")
	}

	value := string(valueBytes)
	if !hmac.Equal(mac, sign(value)) {
		return "", errors.New("invalid signature")
	}
	return value, nil
}

func sign(value string) []byte {
	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(value))
	return mac.Sum(nil)
}

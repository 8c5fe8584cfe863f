package orders

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ReferenceGenerator produces opaque, non-guessable order references like
// SOUV-7QX4-A1B2. The HMAC tag keeps references unpredictable even though
// order ids are sequential.
type ReferenceGenerator struct {
	secret string
}

func NewReferenceGenerator(secret string) *ReferenceGenerator {
	return &ReferenceGenerator{secret: secret}
}

func (g *ReferenceGenerator) Generate(userID int64) string {
	nonce := uuid.NewString()

	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(fmt.Sprintf("uid:%d|nonce:%s", userID, nonce)))

	tag := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("SOUV-%s-%s",
		strings.ToUpper(tag[:4]),
		strings.ToUpper(nonce[:4]),
	)
}

// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package action

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// signBody returns the hex-encoded HMAC-SHA256 of body under secret, sent
// as the request's "signature" header.
func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

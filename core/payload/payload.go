// Package payload validates and hashes the off-chain encrypted record
// artifacts that RECORD transactions anchor through payloadHash. The
// chain never carries the payload itself, only its hash.
package payload

import (
	"crypto/sha256"
	_ "embed"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/record_payload_schema_v1.json
var recordPayloadSchema string

// Validate checks a raw record payload against the payload schema plus
// the checks the schema language cannot express.
func Validate(raw []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(recordPayloadSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return errors.Wrap(err, "schema validation error")
	}
	if !result.Valid() {
		msg := ""
		for _, e := range result.Errors() {
			msg += e.String() + "; "
		}
		return errors.Errorf("payload failed schema validation: %s", msg)
	}

	var rec map[string]interface{}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return errors.Wrap(err, "invalid JSON")
	}
	// issuedAt must carry an explicit offset, same rule as on-chain timestamps.
	issuedAt, _ := rec["issuedAt"].(string)
	if _, err := time.Parse(time.RFC3339, issuedAt); err != nil {
		return errors.New("issuedAt must be RFC3339 with UTC offset")
	}
	// Encrypted fields travel base64-encoded.
	if ctx, ok := rec["encryptionContext"].(map[string]interface{}); ok {
		for _, sub := range []string{"iv", "tag"} {
			if sval, ok := ctx[sub].(string); ok && sval != "" {
				if _, err := base64.StdEncoding.DecodeString(sval); err != nil {
					return errors.Errorf("encryptionContext.%s is not valid base64", sub)
				}
			}
		}
	}
	return nil
}

// Hash validates a payload and returns its lowercase hex sha256, the
// value that belongs in CommonTx.payloadHash.
func Hash(raw []byte) (string, error) {
	if err := Validate(raw); err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

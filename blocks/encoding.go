package blocks

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical mode so that equal programs always encode to
// identical bytes regardless of map iteration order.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("blocks: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Encode serializes a program to canonical CBOR.
func Encode(p *Program) ([]byte, error) {
	if p == nil {
		p = &Program{}
	}
	return cborEncMode.Marshal(p)
}

// Decode deserializes a program from CBOR bytes.
func Decode(data []byte) (*Program, error) {
	var p Program
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("blocks: decode program: %w", err)
	}
	return &p, nil
}

// Fingerprint returns a hex digest of the program's canonical encoding.
// Structurally identical programs have identical fingerprints.
func Fingerprint(p *Program) (string, error) {
	data, err := Encode(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

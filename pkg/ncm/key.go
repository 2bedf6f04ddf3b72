package ncm

import (
	"github.com/pkg/errors"
)

// UnwrapKey recovers the session key from the raw key block. The block is modified in place.
func UnwrapKey(block []byte) (key []byte, err error) {
	xorBytes(block, KeyXOR)
	plaintext, err := decryptECB(CodeKey, block)
	if err != nil {
		return nil, errors.Wrap(err, "unwrap session key")
	}
	if len(plaintext) < KeyPrefixLen {
		return nil, errors.Wrapf(ErrKeyTooShort, "got %d bytes", len(plaintext))
	}
	key = plaintext[KeyPrefixLen:]
	if len(key) == 0 {
		return nil, ErrEmptySessionKey
	}
	return key, nil
}

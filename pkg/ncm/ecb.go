package ncm

import (
	"crypto/aes"

	"github.com/pkg/errors"
)

// decryptECB decrypts AES-128 ECB and strips PKCS7 padding
func decryptECB(key [AESBlockSize]byte, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.Wrap(ErrDecrypt, err.Error())
	}
	if len(ciphertext) == 0 || len(ciphertext)%AESBlockSize != 0 {
		return nil, errors.Wrapf(ErrDecrypt, "ciphertext length %d is not a multiple of %d",
			len(ciphertext), AESBlockSize)
	}
	plaintext := make([]byte, len(ciphertext))
	for bs := 0; bs < len(ciphertext); bs += AESBlockSize {
		block.Decrypt(plaintext[bs:bs+AESBlockSize], ciphertext[bs:bs+AESBlockSize])
	}
	return unpadPKCS7(plaintext)
}

func unpadPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrPadding
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > AESBlockSize || padLen > len(data) {
		return nil, errors.Wrapf(ErrPadding, "padding length %d", padLen)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errors.Wrapf(ErrPadding, "padding byte 0x%02x", b)
		}
	}
	return data[:len(data)-padLen], nil
}

// xorBytes applies the single-byte obfuscation mask in place
func xorBytes(data []byte, mask byte) {
	for i := range data {
		data[i] ^= mask
	}
}

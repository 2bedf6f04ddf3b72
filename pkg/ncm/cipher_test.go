package ncm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSessionKey = []byte("123456789012345678901234567890abcdefghijklmnop")

// referenceTable is the key schedule written with plain int arithmetic
func referenceTable(key []byte) [256]int {
	var t [256]int
	for i := range t {
		t[i] = i
	}
	j := 0
	for i := 0; i < 256; i++ {
		j = (j + t[i] + int(key[i%len(key)])) % 256
		t[i], t[j] = t[j], t[i]
	}
	return t
}

func TestCipherKeySchedule(t *testing.T) {
	c1, err := NewCipher(testSessionKey)
	require.NoError(t, err)
	c2, err := NewCipher(testSessionKey)
	require.NoError(t, err)
	assert.Equal(t, c1.Table(), c2.Table())

	ref := referenceTable(testSessionKey)
	table := c1.Table()
	seen := make(map[byte]bool)
	for i := range table {
		assert.Equal(t, ref[i], int(table[i]), "index %d", i)
		seen[table[i]] = true
	}
	assert.Len(t, seen, KeyBoxSize)

	other, err := NewCipher([]byte{0x01})
	require.NoError(t, err)
	assert.NotEqual(t, table, other.Table())
}

func TestCipherEmptyKey(t *testing.T) {
	_, err := NewCipher(nil)
	assert.ErrorIs(t, err, ErrEmptySessionKey)
}

func TestCipherKeyStreamPeriod(t *testing.T) {
	c, err := NewCipher(testSessionKey)
	require.NoError(t, err)
	for k := 0; k < 256; k++ {
		for m := 1; m < 4; m++ {
			assert.Equal(t, c.KeyStreamByte(k), c.KeyStreamByte(k+256*m))
		}
	}
	ref := referenceTable(testSessionKey)
	for k := 0; k < 512; k++ {
		i := (k + 1) % 256
		j := (ref[i] + i) % 256
		assert.Equal(t, byte(ref[(ref[i]+ref[j])%256]), c.KeyStreamByte(k))
	}
}

func TestCipherTableNotMutated(t *testing.T) {
	c, err := NewCipher(testSessionKey)
	require.NoError(t, err)
	before := c.Table()
	c.XORChunk(make([]byte, AudioChunkSize))
	assert.Equal(t, before, c.Table())
}

func TestCipherChunkLocalOffsets(t *testing.T) {
	c, err := NewCipher(testSessionKey)
	require.NoError(t, err)

	first := make([]byte, AudioChunkSize)
	second := make([]byte, 1000)
	c.XORChunk(first)
	c.XORChunk(second)
	// zero input exposes the keystream: the second chunk restarts at offset 0
	assert.Equal(t, first[:1000], second)

	// an odd chunk length does not shift the next chunk
	odd := make([]byte, 300)
	c.XORChunk(odd)
	next := make([]byte, 300)
	c.XORChunk(next)
	assert.Equal(t, odd, next)
}

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher(testSessionKey)
	require.NoError(t, err)
	plain := make([]byte, 5000)
	for i := range plain {
		plain[i] = byte(i * 7)
	}
	data := bytes.Clone(plain)
	c.XORChunk(data)
	assert.NotEqual(t, plain, data)
	c.XORChunk(data)
	assert.Equal(t, plain, data)
}

func TestXORObfuscationRoundTrip(t *testing.T) {
	for _, mask := range []byte{KeyXOR, MetaXOR} {
		block := []byte("some obfuscated block \x00\xff")
		orig := bytes.Clone(block)
		xorBytes(block, mask)
		assert.NotEqual(t, orig, block)
		xorBytes(block, mask)
		assert.Equal(t, orig, block)
	}
}

func TestUnpadPKCS7(t *testing.T) {
	data := append(bytes.Repeat([]byte{0xaa}, 12), 0x04, 0x04, 0x04, 0x04)
	out, err := unpadPKCS7(data)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xaa}, 12), out)

	full := bytes.Repeat([]byte{0x10}, 16)
	out, err = unpadPKCS7(full)
	require.NoError(t, err)
	assert.Empty(t, out)

	for _, bad := range [][]byte{
		nil,
		append(bytes.Repeat([]byte{0xaa}, 15), 0x00),
		append(bytes.Repeat([]byte{0xaa}, 15), 0x11),
		append(bytes.Repeat([]byte{0xaa}, 13), 0x01, 0x03, 0x03),
	} {
		_, err = unpadPKCS7(bad)
		assert.ErrorIs(t, err, ErrPadding)
	}
}

func TestDecryptECBBlockSize(t *testing.T) {
	_, err := decryptECB(CodeKey, make([]byte, 15))
	assert.ErrorIs(t, err, ErrDecrypt)
	_, err = decryptECB(CodeKey, nil)
	assert.ErrorIs(t, err, ErrDecrypt)
}

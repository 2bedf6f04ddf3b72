package ncm

// Cipher decrypts the audio block. The key box is built once from the session key and is
// never modified afterwards: every keystream byte depends only on its offset inside the
// current chunk, so the same offset of any chunk always gets the same byte.
type Cipher struct {
	box [KeyBoxSize]byte
}

// NewCipher runs the key schedule over the session key
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) == 0 {
		return nil, ErrEmptySessionKey
	}
	c := &Cipher{}
	for i := 0; i < KeyBoxSize; i++ {
		c.box[i] = byte(i)
	}
	var j byte
	for i := 0; i < KeyBoxSize; i++ {
		j += c.box[i] + key[i%len(key)]
		c.box[i], c.box[j] = c.box[j], c.box[i]
	}
	return c, nil
}

// Table returns a copy of the key box
func (c *Cipher) Table() [KeyBoxSize]byte {
	return c.box
}

// KeyStreamByte returns the keystream byte for the chunk-local offset k
func (c *Cipher) KeyStreamByte(k int) byte {
	i := (k + 1) & 0xff
	j := (int(c.box[i]) + i) & 0xff
	return c.box[(int(c.box[i])+int(c.box[j]))&0xff]
}

// XORChunk decrypts (or encrypts) one chunk in place. Offsets start at zero for every call.
func (c *Cipher) XORChunk(chunk []byte) {
	for k := range chunk {
		chunk[k] ^= c.KeyStreamByte(k)
	}
}

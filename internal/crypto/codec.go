package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"strings"

	pairlock_errors "pairlock/pkg/errors"
)

// Transport string layout: hex(nonce):hex(tag):hex(ciphertext). GCM is run
// with a 16-byte nonce and its standard 16-byte tag.
const (
	nonceSize          = 16
	tagSize            = 16
	transportDelimiter = ":"
	transportFields    = 3
)

// FileMeta is the structured record encrypted for image and file messages.
// File content itself is stored unencrypted out of band; only this metadata
// is protected.
type FileMeta struct {
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
}

// Codec performs authenticated encryption of message payloads. It holds no
// state; one instance per process is enough.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

// Encrypt seals plaintext under key and encodes the result as a transport
// string. A fresh random nonce is drawn per call.
func (c *Codec) Encrypt(plaintext, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return strings.Join([]string{
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, transportDelimiter), nil
}

// Decrypt parses a transport string and opens it under key. Any malformed
// input, tag mismatch or wrong key yields ErrDecryptFailed; plaintext is
// never partially returned.
func (c *Codec) Decrypt(transport string, key []byte) ([]byte, error) {
	parts := strings.Split(transport, transportDelimiter)
	if len(parts) != transportFields {
		return nil, pairlock_errors.ErrDecryptFailed
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return nil, pairlock_errors.ErrDecryptFailed
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return nil, pairlock_errors.ErrDecryptFailed
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, pairlock_errors.ErrDecryptFailed
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, pairlock_errors.ErrDecryptFailed
	}
	return plaintext, nil
}

// EncryptText seals a UTF-8 string.
func (c *Codec) EncryptText(text string, key []byte) (string, error) {
	return c.Encrypt([]byte(text), key)
}

// DecryptText opens a transport string back into UTF-8 text.
func (c *Codec) DecryptText(transport string, key []byte) (string, error) {
	plaintext, err := c.Decrypt(transport, key)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptFileMeta seals the file metadata record via its JSON serialization.
func (c *Codec) EncryptFileMeta(meta FileMeta, key []byte) (string, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return c.Encrypt(raw, key)
}

// DecryptFileMeta opens a transport string back into a file metadata record.
func (c *Codec) DecryptFileMeta(transport string, key []byte) (FileMeta, error) {
	raw, err := c.Decrypt(transport, key)
	if err != nil {
		return FileMeta{}, err
	}
	var meta FileMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return FileMeta{}, pairlock_errors.ErrDecryptFailed
	}
	return meta, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != keyLen {
		return nil, pairlock_errors.ErrInvalidInput
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, nonceSize)
}

// Package credential seals account secrets with AES-256-CBC under a per-record key and IV.
//
// The scheme is reversible and carries no authentication tag. It is kept for compatibility with
// existing account records; a salted one-way hash would be the correct storage for new systems.
package credential

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const (
	// KeySize is the raw AES-256 key length in bytes.
	KeySize = 32
	// IVSize is the raw CBC initialization vector length in bytes.
	IVSize = aes.BlockSize
)

// ErrCryptoFailure is returned whenever key material or ciphertext cannot be used.
var ErrCryptoFailure = errors.New("credential crypto failure")

// Sealed is the hex-encoded output of an encryption together with the material needed to reverse it.
type Sealed struct {
	Ciphertext string
	Key        string
	IV         string
}

// Cipher encrypts and decrypts single secrets.
type Cipher struct {
	random io.Reader
}

// New returns a Cipher drawing keys and IVs from crypto/rand.
func New() *Cipher {
	return &Cipher{random: rand.Reader}
}

// NewWithRandom returns a Cipher drawing key material from the supplied reader.
func NewWithRandom(random io.Reader) *Cipher {
	if random == nil {
		random = rand.Reader
	}
	return &Cipher{random: random}
}

// Encrypt seals plaintext under a freshly generated key and IV.
func (c *Cipher) Encrypt(plaintext string) (Sealed, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(c.random, key); err != nil {
		return Sealed{}, fmt.Errorf("%w: generate key: %v", ErrCryptoFailure, err)
	}
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(c.random, iv); err != nil {
		return Sealed{}, fmt.Errorf("%w: generate iv: %v", ErrCryptoFailure, err)
	}

	ciphertext, err := seal(plaintext, key, iv)
	if err != nil {
		return Sealed{}, err
	}

	return Sealed{
		Ciphertext: ciphertext,
		Key:        hex.EncodeToString(key),
		IV:         hex.EncodeToString(iv),
	}, nil
}

// EncryptWith seals plaintext under an existing hex key and IV.
func (c *Cipher) EncryptWith(plaintext, keyHex, ivHex string) (string, error) {
	key, iv, err := decodePair(keyHex, ivHex)
	if err != nil {
		return "", err
	}
	return seal(plaintext, key, iv)
}

// Decrypt reverses Encrypt. Wrong-length key material, malformed hex and bad padding all yield ErrCryptoFailure.
func (c *Cipher) Decrypt(ciphertextHex, keyHex, ivHex string) (string, error) {
	key, iv, err := decodePair(keyHex, ivHex)
	if err != nil {
		return "", err
	}

	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not hex", ErrCryptoFailure)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d", ErrCryptoFailure, len(ciphertext))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	unpadded, err := pkcs7Unpad(plain)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

// ValidatePair checks that stored key material decodes to exactly KeySize and IVSize bytes.
func ValidatePair(keyHex, ivHex string) error {
	_, _, err := decodePair(keyHex, ivHex)
	return err
}

func seal(plaintext string, key, iv []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(out), nil
}

func decodePair(keyHex, ivHex string) ([]byte, []byte, error) {
	if len(keyHex) != KeySize*2 {
		return nil, nil, fmt.Errorf("%w: key must be %d hex characters", ErrCryptoFailure, KeySize*2)
	}
	if len(ivHex) != IVSize*2 {
		return nil, nil, fmt.Errorf("%w: iv must be %d hex characters", ErrCryptoFailure, IVSize*2)
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: key is not hex", ErrCryptoFailure)
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: iv is not hex", ErrCryptoFailure)
	}

	return key, iv, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrCryptoFailure)
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > aes.BlockSize || padding > len(data) {
		return nil, fmt.Errorf("%w: bad padding", ErrCryptoFailure)
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("%w: bad padding", ErrCryptoFailure)
		}
	}
	return data[:len(data)-padding], nil
}

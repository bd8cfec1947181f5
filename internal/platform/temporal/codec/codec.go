// Package codec encrypts Temporal payloads so credential e-mails never reach
// workflow history in plaintext.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
	"google.golang.org/protobuf/proto"
)

const (
	// MetadataEncodingEncrypted marks payloads sealed by Codec.
	MetadataEncodingEncrypted = "binary/encrypted"
	// MetadataKeyID names the key a payload was sealed with.
	MetadataKeyID = "encryption-key-id"

	keySize = 32
)

var (
	ErrInvalidKey = errors.New("payload key must be 32 bytes, base64 encoded")
	ErrUnknownKey = errors.New("payload sealed with an unknown key")
)

// Codec seals every payload with AES-256-GCM.
type Codec struct {
	keyID string
	aead  cipher.AEAD
}

// ParseKey decodes a base64 payload key.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil || len(key) != keySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// New builds a codec for a 32 byte key.
func New(keyID string, key []byte) (*Codec, error) {
	if len(key) != keySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{keyID: keyID, aead: aead}, nil
}

// DataConverter layers the codec over the SDK default converter.
func DataConverter(c *Codec) converter.DataConverter {
	return converter.NewCodecDataConverter(converter.GetDefaultDataConverter(), c)
}

// Encode implements converter.PayloadCodec.
func (c *Codec) Encode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	out := make([]*commonpb.Payload, len(payloads))
	for i, p := range payloads {
		plain, err := proto.Marshal(p)
		if err != nil {
			return payloads, err
		}
		nonce := make([]byte, c.aead.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return payloads, err
		}
		out[i] = &commonpb.Payload{
			Metadata: map[string][]byte{
				converter.MetadataEncoding: []byte(MetadataEncodingEncrypted),
				MetadataKeyID:              []byte(c.keyID),
			},
			Data: c.aead.Seal(nonce, nonce, plain, []byte(c.keyID)),
		}
	}
	return out, nil
}

// Decode implements converter.PayloadCodec. Payloads that were never sealed pass through.
func (c *Codec) Decode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	out := make([]*commonpb.Payload, len(payloads))
	for i, p := range payloads {
		if string(p.GetMetadata()[converter.MetadataEncoding]) != MetadataEncodingEncrypted {
			out[i] = p
			continue
		}
		if keyID := string(p.GetMetadata()[MetadataKeyID]); keyID != c.keyID {
			return payloads, fmt.Errorf("%w: %q", ErrUnknownKey, keyID)
		}
		data := p.GetData()
		size := c.aead.NonceSize()
		if len(data) < size {
			return payloads, errors.New("sealed payload is truncated")
		}
		plain, err := c.aead.Open(nil, data[:size], data[size:], []byte(c.keyID))
		if err != nil {
			return payloads, fmt.Errorf("open payload: %w", err)
		}
		decoded := &commonpb.Payload{}
		if err := proto.Unmarshal(plain, decoded); err != nil {
			return payloads, err
		}
		out[i] = decoded
	}
	return out, nil
}

var _ converter.PayloadCodec = (*Codec)(nil)

package envelope

import (
	"bytes"
	"fmt"
	"io"
)

// Binary format constants.
const (
	// magic is the 2-byte signature "EV" (EnVelope).
	magic = "EV"

	// formatVersion is the current binary format version.
	formatVersion = 0x01

	// algDefaultGCM identifies the default cipher: AES-GCM, tag 128, no AAD.
	algDefaultGCM = 0x01

	// gcmTagSize is the authentication tag size for GCM (16 bytes).
	gcmTagSize = 16

	// minHeaderSize is the minimum header size: magic(2) + version(1) + alg(1) + nonceLen(1).
	minHeaderSize = 5

	// maxNonceSize is the largest nonce the one-byte length field can describe.
	maxNonceSize = 255
)

// header represents the parsed header of a sealed blob.
type header struct {
	version   byte
	algorithm byte
	nonce     []byte
}

// headerSize returns the total header size in bytes for a nonce of n bytes.
func headerSize(n int) int {
	return minHeaderSize + n
}

// writeHeader writes the binary header to w.
func writeHeader(w io.Writer, h *header) error {
	if len(h.nonce) == 0 || len(h.nonce) > maxNonceSize {
		return fmt.Errorf("%w: nonce of %d bytes cannot be framed", ErrInvalidFormat, len(h.nonce))
	}

	if _, err := w.Write([]byte(magic)); err != nil {
		return err
	}

	meta := []byte{h.version, h.algorithm, byte(len(h.nonce))}
	if _, err := w.Write(meta); err != nil {
		return err
	}

	if _, err := w.Write(h.nonce); err != nil {
		return err
	}
	return nil
}

// readHeader parses the binary header from data, returning the header and remaining ciphertext.
// The nonce in the returned header is a copy, safe from caller mutation.
func readHeader(data []byte) (*header, []byte, error) {
	if len(data) < minHeaderSize {
		return nil, nil, fmt.Errorf("%w: data too short", ErrInvalidFormat)
	}

	if string(data[0:2]) != magic {
		return nil, nil, fmt.Errorf("%w: invalid magic bytes", ErrInvalidFormat)
	}

	h := &header{
		version:   data[2],
		algorithm: data[3],
	}

	if h.version != formatVersion {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, h.version)
	}
	if h.algorithm != algDefaultGCM {
		return nil, nil, fmt.Errorf("%w: unsupported algorithm %d", ErrInvalidFormat, h.algorithm)
	}

	nonceLen := int(data[4])
	if nonceLen == 0 {
		return nil, nil, fmt.Errorf("%w: empty nonce", ErrInvalidFormat)
	}
	offset := minHeaderSize

	// The ciphertext holds at least the GCM tag.
	if len(data) < offset+nonceLen+gcmTagSize {
		return nil, nil, fmt.Errorf("%w: data too short for header", ErrInvalidFormat)
	}

	h.nonce = append([]byte(nil), data[offset:offset+nonceLen]...)
	offset += nonceLen

	return h, data[offset:], nil
}

// MarshalBinary frames s as magic, version, algorithm, nonce length, nonce and
// ciphertext. Only envelopes of the default cipher can be framed: s must carry
// a nonce of 1 to 255 bytes.
func (s Sealed) MarshalBinary() ([]byte, error) {
	h := &header{
		version:   formatVersion,
		algorithm: algDefaultGCM,
		nonce:     s.Nonce,
	}

	var buf bytes.Buffer
	buf.Grow(headerSize(len(s.Nonce)) + len(s.Ciphertext))
	if err := writeHeader(&buf, h); err != nil {
		return nil, err
	}
	buf.Write(s.Ciphertext)
	return buf.Bytes(), nil
}

// UnmarshalSealed parses a blob produced by Sealed.MarshalBinary.
// The returned ciphertext aliases data; the nonce is a copy.
func UnmarshalSealed(data []byte) (Sealed, error) {
	h, ciphertext, err := readHeader(data)
	if err != nil {
		return Sealed{}, err
	}
	return Sealed{Ciphertext: ciphertext, Nonce: Nonce(h.nonce)}, nil
}

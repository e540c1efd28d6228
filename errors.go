package envelope

import "errors"

var (
	// ErrInvalidArgument is returned when a caller argument is malformed,
	// e.g. a non-positive random size or a missing nonce for decryption.
	ErrInvalidArgument = errors.New("envelope: invalid argument")

	// ErrUnsupportedAlgorithm is returned by an engine that does not implement
	// the requested algorithm, hash or key format.
	ErrUnsupportedAlgorithm = errors.New("envelope: unsupported algorithm")

	// ErrInvalidUsage is returned when a key is used for an operation it was not
	// created for, or when a usage set is not legal for the key algorithm.
	ErrInvalidUsage = errors.New("envelope: invalid key usage")

	// ErrInvalidKeyMaterial is returned when imported key material is malformed.
	ErrInvalidKeyMaterial = errors.New("envelope: invalid key material")

	// ErrInvalidParameters is returned when algorithm parameters are rejected
	// (impossible key length, wrong IV size, zero iterations).
	ErrInvalidParameters = errors.New("envelope: invalid algorithm parameters")

	// ErrDecryptionFailed is returned when authenticated decryption fails
	// (wrong key, wrong nonce, tampered data).
	ErrDecryptionFailed = errors.New("envelope: decryption failed")

	// ErrInvalidFormat is returned when a sealed blob has an invalid format.
	ErrInvalidFormat = errors.New("envelope: invalid sealed data format")
)

// IsInvalidArgument returns true if the error is or wraps ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsUnsupportedAlgorithm returns true if the error is or wraps ErrUnsupportedAlgorithm.
func IsUnsupportedAlgorithm(err error) bool {
	return errors.Is(err, ErrUnsupportedAlgorithm)
}

// IsInvalidUsage returns true if the error is or wraps ErrInvalidUsage.
func IsInvalidUsage(err error) bool {
	return errors.Is(err, ErrInvalidUsage)
}

// IsInvalidKeyMaterial returns true if the error is or wraps ErrInvalidKeyMaterial.
func IsInvalidKeyMaterial(err error) bool {
	return errors.Is(err, ErrInvalidKeyMaterial)
}

// IsInvalidParameters returns true if the error is or wraps ErrInvalidParameters.
func IsInvalidParameters(err error) bool {
	return errors.Is(err, ErrInvalidParameters)
}

// IsDecryptionFailed returns true if the error is or wraps ErrDecryptionFailed.
func IsDecryptionFailed(err error) bool {
	return errors.Is(err, ErrDecryptionFailed)
}

// IsInvalidFormat returns true if the error is or wraps ErrInvalidFormat.
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}

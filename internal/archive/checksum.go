package archive

import "crypto/sha256"

// ComputeChecksum computes the SHA-256 checksum of the data section.
func ComputeChecksum(data []byte) [ChecksumSize]byte {
	return sha256.Sum256(data)
}

// ValidateChecksum returns ErrChecksumMismatch when computed differs from stored.
func ValidateChecksum(computed, stored [ChecksumSize]byte) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}

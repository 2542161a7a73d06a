package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
)

// Write encodes a into w. Buffers are laid out in slice order.
func Write(w io.Writer, a *Archive) error {
	if a == nil {
		return fmt.Errorf("nil archive")
	}

	header := Header{
		FormatVersion: FormatVersion,
		Producer:      a.Producer,
		ModelType:     ModelType,
		Name:          a.Name,
		Source:        a.Source,
		CreatedAt:     a.CreatedAt,
		Tensors:       make([]TensorMeta, 0, len(a.Buffers)),
		Metadata:      a.Metadata,
	}
	if header.Producer == "" {
		header.Producer = DefaultProducer
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	var data bytes.Buffer
	for _, b := range a.Buffers {
		if b.Tensor == nil {
			return fmt.Errorf("buffer %q: nil tensor", b.Name)
		}
		offset := int64(data.Len())
		raw := b.Tensor.Data()
		if len(raw) != b.Tensor.ByteSize() {
			return fmt.Errorf("buffer %q: tensor has been released", b.Name)
		}
		data.Write(raw)

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   b.Name,
			DType:  b.Tensor.DType().String(),
			Shape:  append([]int(nil), b.Tensor.Shape()...),
			Offset: offset,
			Size:   int64(len(raw)),
		})
	}

	if err := ValidateHeader(&header, int64(data.Len())); err != nil {
		return fmt.Errorf("invalid archive: %w", err)
	}

	var flags uint32
	if len(header.Tensors) > 0 {
		flags |= FlagHasBuffers
	}
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}

	return writeContainer(w, &header, flags, data.Bytes())
}

// Save writes a to the file at path, replacing any existing file.
func Save(path string, a *Archive) error {
	//nolint:gosec // G304: the archive path is chosen by the caller
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := Write(file, a); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// writeContainer emits the fixed header, the msgpack header, alignment
// padding and the data section. The header is written as given.
func writeContainer(w io.Writer, header *Header, flags uint32, data []byte) error {
	headerBytes, err := msgpack.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerBytes) > MaxHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, len(headerBytes))
	}

	headerSize, err := safecast.Conv[uint64](len(headerBytes))
	if err != nil {
		return fmt.Errorf("header size: %w", err)
	}
	dataSize, err := safecast.Conv[uint64](len(data))
	if err != nil {
		return fmt.Errorf("data size: %w", err)
	}

	var fixed [FixedHeaderSize]byte
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[16:24], headerSize)
	binary.LittleEndian.PutUint64(fixed[24:32], dataSize)
	checksum := ComputeChecksum(data)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := w.Write(fixed[:]); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.Write(headerBytes); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	end := int64(FixedHeaderSize + len(headerBytes))
	if padding := alignUp(end) - end; padding > 0 {
		if _, err := w.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

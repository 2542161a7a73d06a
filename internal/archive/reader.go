package archive

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/born-ml/gotorch/internal/tensor"
)

// Read decodes an archive from r. Every buffer in the result owns its memory.
func Read(r io.Reader) (*Archive, error) {
	var fixed [FixedHeaderSize]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, fmt.Errorf("failed to read fixed header: %w", err)
	}

	if string(fixed[0:4]) != MagicBytes {
		return nil, fmt.Errorf("%w: expected %q, got %q", ErrInvalidMagic, MagicBytes, fixed[0:4])
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return nil, fmt.Errorf("%w: %d (expected %d)", ErrUnsupportedVersion, version, FormatVersion)
	}

	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	if headerSize > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrHeaderTooLarge, headerSize, MaxHeaderSize)
	}
	dataSize, err := safecast.Conv[int64](binary.LittleEndian.Uint64(fixed[24:32]))
	if err != nil {
		return nil, fmt.Errorf("data size: %w", err)
	}
	var stored [ChecksumSize]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	end := int64(FixedHeaderSize) + int64(headerSize)
	if padding := alignUp(end) - end; padding > 0 {
		if _, err := io.CopyN(io.Discard, r, padding); err != nil {
			return nil, fmt.Errorf("failed to skip padding: %w", err)
		}
	}

	// A corrupt data size must not over-allocate.
	data, err := io.ReadAll(io.LimitReader(r, dataSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if int64(len(data)) != dataSize {
		return nil, fmt.Errorf("failed to read tensor data: %w", io.ErrUnexpectedEOF)
	}
	if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
		return nil, err
	}

	var header Header
	if err := msgpack.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	if err := ValidateHeader(&header, dataSize); err != nil {
		return nil, fmt.Errorf("invalid archive: %w", err)
	}

	a := &Archive{
		Name:      header.Name,
		Source:    header.Source,
		Producer:  header.Producer,
		CreatedAt: header.CreatedAt,
		Metadata:  header.Metadata,
		Buffers:   make([]Buffer, 0, len(header.Tensors)),
	}
	for _, meta := range header.Tensors {
		dt, _ := tensor.ParseDataType(meta.DType)
		raw, err := tensor.FromBytes(data[meta.Offset:meta.Offset+meta.Size], tensor.Shape(meta.Shape), dt)
		if err != nil {
			a.Release()
			return nil, fmt.Errorf("buffer %q: %w", meta.Name, err)
		}
		a.Buffers = append(a.Buffers, Buffer{Name: meta.Name, Tensor: raw})
	}

	return a, nil
}

// Load reads the archive stored at path.
func Load(path string) (*Archive, error) {
	//nolint:gosec // G304: the archive path is chosen by the caller
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	a, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

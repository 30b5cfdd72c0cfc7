package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/born-ml/qweights/internal/tensor"
	"github.com/goccy/go-json"
)

const metadataKey = "__metadata__"

// SafeTensorInfo describes a tensor in the SafeTensors header.
type SafeTensorInfo struct {
	DType       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end)
}

// StateDict is a set of named tensors plus string metadata.
type StateDict struct {
	Tensors  map[string]*tensor.RawTensor
	Metadata map[string]string
}

// Names returns the tensor names in sorted order.
func (sd *StateDict) Names() []string {
	return slices.Sorted(maps.Keys(sd.Tensors))
}

// Write encodes sd to w. Tensors are written in alphabetical order and the
// data checksum is stored under MetadataChecksum.
func Write(w io.Writer, sd *StateDict) error {
	names := sd.Names()
	header := make(map[string]any, len(names)+1)

	var data bytes.Buffer
	for _, name := range names {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		raw := sd.Tensors[name]
		dtype, err := dtypeToSafeTensors(raw.DType())
		if err != nil {
			return err
		}
		start := int64(data.Len())
		data.Write(raw.Data())
		header[name] = SafeTensorInfo{
			DType:       dtype,
			Shape:       slices.Clone(raw.Shape()),
			DataOffsets: [2]int64{start, int64(data.Len())},
		}
	}

	metadata := maps.Clone(sd.Metadata)
	if metadata == nil {
		metadata = make(map[string]string, 1)
	}
	sum := ComputeChecksum(data.Bytes())
	metadata[MetadataChecksum] = hex.EncodeToString(sum[:])
	header[metadataKey] = metadata

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// Read decodes and validates a SafeTensors stream.
func Read(r io.Reader) (*StateDict, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, &ValidationError{Err: ErrHeaderTooLarge, Details: fmt.Sprintf("%d bytes", headerSize)}
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	metadata, infos, err := parseHeader(headerJSON)
	if err != nil {
		return nil, err
	}
	if stored, ok := metadata[MetadataChecksum]; ok {
		if err := ValidateChecksum(data, stored); err != nil {
			return nil, err
		}
	}

	metas := make([]TensorMeta, 0, len(infos))
	for name, info := range infos {
		metas = append(metas, TensorMeta{
			Name:   name,
			Offset: info.DataOffsets[0],
			Size:   info.DataOffsets[1] - info.DataOffsets[0],
		})
	}
	if err := ValidateTensorOffsets(metas, int64(len(data))); err != nil {
		return nil, err
	}

	sd := &StateDict{Tensors: make(map[string]*tensor.RawTensor, len(infos)), Metadata: metadata}
	for name, info := range infos {
		raw, err := loadTensor(name, info, data)
		if err != nil {
			return nil, err
		}
		sd.Tensors[name] = raw
	}
	return sd, nil
}

// WriteFile encodes sd to path.
func WriteFile(path string, sd *StateDict) error {
	var buf bytes.Buffer
	if err := Write(&buf, sd); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadFile decodes the SafeTensors file at path.
func ReadFile(path string) (*StateDict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	sd, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sd, nil
}

func parseHeader(headerJSON []byte) (map[string]string, map[string]SafeTensorInfo, error) {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &rawMap); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}
	if len(rawMap) > MaxTensorCount+1 {
		return nil, nil, &ValidationError{Err: ErrTooManyTensors, Details: fmt.Sprintf("got %d", len(rawMap))}
	}

	var metadata map[string]string
	if raw, ok := rawMap[metadataKey]; ok {
		if err := json.Unmarshal(raw, &metadata); err != nil {
			return nil, nil, fmt.Errorf("failed to parse metadata: %w", err)
		}
		delete(rawMap, metadataKey)
	}

	infos := make(map[string]SafeTensorInfo, len(rawMap))
	for name, raw := range rawMap {
		if err := ValidateTensorName(name); err != nil {
			return nil, nil, err
		}
		var info SafeTensorInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, nil, fmt.Errorf("failed to parse tensor %s: %w", name, err)
		}
		infos[name] = info
	}
	return metadata, infos, nil
}

func loadTensor(name string, info SafeTensorInfo, data []byte) (*tensor.RawTensor, error) {
	dtype, ok := tensor.ParseDataType(info.DType)
	if !ok {
		return nil, &ValidationError{Err: ErrInvalidDType, Tensor: name, Details: info.DType}
	}
	shape := tensor.Shape(info.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	want, err := shape.ByteSize(dtype.Size())
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	start, end := info.DataOffsets[0], info.DataOffsets[1]
	if end-start != int64(want) {
		return nil, &ValidationError{
			Err:     ErrOutOfBounds,
			Tensor:  name,
			Details: fmt.Sprintf("shape %v needs %d bytes, offsets span %d", shape, want, end-start),
		}
	}
	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	copy(raw.Data(), data[start:end])
	return raw, nil
}

func dtypeToSafeTensors(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float32:
		return "F32", nil
	case tensor.Float64:
		return "F64", nil
	case tensor.Int32:
		return "I32", nil
	case tensor.Int64:
		return "I64", nil
	case tensor.Uint8:
		return "U8", nil
	default:
		return "", &ValidationError{Err: ErrInvalidDType, Details: dt.String()}
	}
}

// Package tensorio reads and writes tensors as JSON documents:
//
//	{"shape": [2, 2], "dtype": "float32", "data": [-2, 0, 0.3, 4]}
//
// dtype defaults to float32. Float data may use the strings "NaN", "Inf"
// and "-Inf" for values JSON numbers cannot carry.
package tensorio

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/born-ml/qweights/internal/tensor"
	"github.com/goccy/go-json"
)

// Document is the on-disk form of a tensor.
type Document struct {
	Shape []int           `json:"shape"`
	DType string          `json:"dtype,omitempty"`
	Data  json.RawMessage `json:"data"`
}

// Decode reads one document from r and returns it as a CPU tensor.
func Decode(r io.Reader) (*tensor.RawTensor, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("tensorio: %w", err)
	}
	return doc.Tensor()
}

// Tensor converts the document into a CPU tensor.
func (d *Document) Tensor() (*tensor.RawTensor, error) {
	if d.Shape == nil {
		return nil, fmt.Errorf("tensorio: missing shape")
	}
	dtype := tensor.Float32
	if d.DType != "" {
		var ok bool
		if dtype, ok = tensor.ParseDataType(d.DType); !ok {
			return nil, fmt.Errorf("tensorio: unknown dtype %q", d.DType)
		}
	}

	shape := tensor.Shape(d.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tensorio: %w", err)
	}
	if _, err := shape.ByteSize(dtype.Size()); err != nil {
		return nil, fmt.Errorf("tensorio: %w", err)
	}

	// Values are parsed and counted before the tensor is allocated.
	var floats []jsonFloat
	var ints []int64
	var n int
	var err error
	if dtype.IsFloat() {
		err = json.Unmarshal(d.Data, &floats)
		n = len(floats)
	} else {
		err = json.Unmarshal(d.Data, &ints)
		n = len(ints)
	}
	if err != nil {
		return nil, fmt.Errorf("tensorio: data: %w", err)
	}
	if want := shape.NumElements(); n != want {
		return nil, fmt.Errorf("tensorio: shape %v needs %d elements, data has %d", shape, want, n)
	}

	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("tensorio: %w", err)
	}
	switch dtype {
	case tensor.Float32:
		fillFloats(raw.AsFloat32(), floats)
	case tensor.Float64:
		fillFloats(raw.AsFloat64(), floats)
	case tensor.Int32:
		err = fillInts(raw.AsInt32(), ints)
	case tensor.Int64:
		err = fillInts(raw.AsInt64(), ints)
	case tensor.Uint8:
		err = fillInts(raw.AsUint8(), ints)
	}
	if err != nil {
		return nil, fmt.Errorf("tensorio: data: %w", err)
	}
	return raw, nil
}

// Encode writes t to w as an indented document.
func Encode(w io.Writer, t *tensor.RawTensor) error {
	doc, err := NewDocument(t)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("tensorio: %w", err)
	}
	return nil
}

// NewDocument converts t into a Document.
func NewDocument(t *tensor.RawTensor) (*Document, error) {
	var data []byte
	var err error
	switch t.DType() {
	case tensor.Float32:
		data = encodeFloats(t.AsFloat32(), 32)
	case tensor.Float64:
		data = encodeFloats(t.AsFloat64(), 64)
	case tensor.Int32:
		data, err = json.Marshal(t.AsInt32())
	case tensor.Int64:
		data, err = json.Marshal(t.AsInt64())
	case tensor.Uint8:
		// []byte would marshal as base64.
		data, err = json.Marshal(widen(t.AsUint8()))
	default:
		return nil, fmt.Errorf("tensorio: unsupported dtype %s", t.DType())
	}
	if err != nil {
		return nil, fmt.Errorf("tensorio: %w", err)
	}
	return &Document{
		Shape: append([]int{}, t.Shape()...),
		DType: t.DType().String(),
		Data:  data,
	}, nil
}

// ReadFile decodes the document at path.
func ReadFile(path string) (*tensor.RawTensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tensorio: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// WriteFile encodes t to path, replacing any existing file.
func WriteFile(path string, t *tensor.RawTensor) error {
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("tensorio: %w", err)
	}
	return nil
}

func fillFloats[T tensor.Float](dst []T, vals []jsonFloat) {
	for i, v := range vals {
		dst[i] = T(v)
	}
}

func fillInts[T int32 | int64 | uint8](dst []T, vals []int64) error {
	for i, v := range vals {
		if int64(T(v)) != v {
			return fmt.Errorf("value %d at index %d overflows %T", v, i, dst[i])
		}
		dst[i] = T(v)
	}
	return nil
}

func encodeFloats[T tensor.Float](src []T, bitSize int) []byte {
	buf := []byte{'['}
	for i, v := range src {
		if i > 0 {
			buf = append(buf, ',')
		}
		f := float64(v)
		switch {
		case math.IsNaN(f):
			buf = append(buf, `"NaN"`...)
		case math.IsInf(f, 1):
			buf = append(buf, `"Inf"`...)
		case math.IsInf(f, -1):
			buf = append(buf, `"-Inf"`...)
		default:
			buf = strconv.AppendFloat(buf, f, 'g', -1, bitSize)
		}
	}
	return append(buf, ']')
}

func widen(src []uint8) []int {
	out := make([]int, len(src))
	for i, v := range src {
		out[i] = int(v)
	}
	return out
}

// jsonFloat accepts a JSON number or one of "NaN", "Inf", "+Inf", "-Inf".
type jsonFloat float64

func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		switch s {
		case "NaN":
			*f = jsonFloat(math.NaN())
		case "Inf", "+Inf":
			*f = jsonFloat(math.Inf(1))
		case "-Inf":
			*f = jsonFloat(math.Inf(-1))
		default:
			return fmt.Errorf("invalid float %q", s)
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

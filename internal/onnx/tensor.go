package onnx

import (
	"fmt"
	"math"
	"strings"
)

type TensorDType string

const (
	DTypeFloat32 TensorDType = "float32"
	DTypeInt64   TensorDType = "int64"
	DTypeInt32   TensorDType = "int32"
)

// Tensor is a dense, row-major host tensor exchanged with graph runners.
type Tensor struct {
	dtype TensorDType
	shape []int64
	data  any
}

type tensorElem interface {
	~float32 | ~int64 | ~int32
}

func NewTensor[T tensorElem](data []T, shape []int64) (*Tensor, error) {
	dtype, err := dtypeFromSlice(data)
	if err != nil {
		return nil, err
	}
	if err := validateShapeAgainstData(shape, len(data)); err != nil {
		return nil, err
	}

	t := &Tensor{
		dtype: dtype,
		shape: append([]int64(nil), shape...),
	}
	switch dtype {
	case DTypeFloat32:
		t.data = convertSlice[T, float32](data)
	case DTypeInt64:
		t.data = convertSlice[T, int64](data)
	case DTypeInt32:
		t.data = convertSlice[T, int32](data)
	default:
		return nil, fmt.Errorf("unsupported tensor dtype %q", dtype)
	}
	return t, nil
}

// NewIDTensor builds a 1-D id tensor in the dtype a graph declares for it.
// Symbol ids are small, so narrowing to int32 is lossless.
func NewIDTensor(ids []int64, dtype TensorDType) (*Tensor, error) {
	shape := []int64{int64(len(ids))}
	switch dtype {
	case DTypeInt64:
		return NewTensor(ids, shape)
	case DTypeInt32, "":
		return NewTensor(convertSlice[int64, int32](ids), shape)
	default:
		return nil, fmt.Errorf("unsupported id tensor dtype %q", dtype)
	}
}

func NewZeroTensor(dtype string, shape []any) (*Tensor, error) {
	canonical, err := canonicalDType(dtype)
	if err != nil {
		return nil, err
	}
	resolvedShape, err := resolveShape(shape)
	if err != nil {
		return nil, err
	}
	count, err := elementCount(resolvedShape)
	if err != nil {
		return nil, err
	}

	switch canonical {
	case DTypeFloat32:
		return NewTensor(make([]float32, count), resolvedShape)
	case DTypeInt64:
		return NewTensor(make([]int64, count), resolvedShape)
	case DTypeInt32:
		return NewTensor(make([]int32, count), resolvedShape)
	default:
		return nil, fmt.Errorf("unsupported tensor dtype %q", canonical)
	}
}

func (t *Tensor) DType() TensorDType {
	return t.dtype
}

func (t *Tensor) Shape() []int64 {
	return append([]int64(nil), t.shape...)
}

// Len returns the number of elements.
func (t *Tensor) Len() int {
	switch v := t.data.(type) {
	case []float32:
		return len(v)
	case []int64:
		return len(v)
	case []int32:
		return len(v)
	default:
		return 0
	}
}

func (t *Tensor) Data() any {
	switch v := t.data.(type) {
	case []float32:
		return append([]float32(nil), v...)
	case []int64:
		return append([]int64(nil), v...)
	case []int32:
		return append([]int32(nil), v...)
	default:
		return nil
	}
}

func ExtractFloat32(t *Tensor) ([]float32, error) {
	if t == nil {
		return nil, fmt.Errorf("expected float32 tensor, got nil")
	}
	data, ok := t.data.([]float32)
	if !ok {
		return nil, fmt.Errorf("expected float32 tensor, got %s", t.dtype)
	}
	return append([]float32(nil), data...), nil
}

// ExtractInt64 returns integer tensor data widened to int64. Graph exports
// disagree on int32 vs int64 for length outputs, so both are accepted.
func ExtractInt64(t *Tensor) ([]int64, error) {
	if t == nil {
		return nil, fmt.Errorf("expected integer tensor, got nil")
	}
	switch data := t.data.(type) {
	case []int64:
		return append([]int64(nil), data...), nil
	case []int32:
		return convertSlice[int32, int64](data), nil
	default:
		return nil, fmt.Errorf("expected integer tensor, got %s", t.dtype)
	}
}

func convertSlice[S tensorElem, D tensorElem](in []S) []D {
	out := make([]D, len(in))
	for i, v := range in {
		out[i] = D(v)
	}
	return out
}

func dtypeFromSlice[T tensorElem](_ []T) (TensorDType, error) {
	var zero T
	switch any(zero).(type) {
	case int64:
		return DTypeInt64, nil
	case int32:
		return DTypeInt32, nil
	case float32:
		return DTypeFloat32, nil
	default:
		return "", fmt.Errorf("unsupported tensor data type %T", zero)
	}
}

func canonicalDType(raw string) (TensorDType, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.TrimPrefix(normalized, "tensor(")
	normalized = strings.TrimSuffix(normalized, ")")
	switch normalized {
	case "float", "float32":
		return DTypeFloat32, nil
	case "int64", "long":
		return DTypeInt64, nil
	case "int32", "int":
		return DTypeInt32, nil
	default:
		return "", fmt.Errorf("unsupported tensor dtype %q", raw)
	}
}

func resolveShape(shape []any) ([]int64, error) {
	out := make([]int64, len(shape))
	for i, dim := range shape {
		switch v := dim.(type) {
		case float64:
			if v < 1 || v != math.Trunc(v) {
				return nil, fmt.Errorf("shape[%d]=%v is not a positive integer", i, v)
			}
			out[i] = int64(v)
		case int:
			if v < 1 {
				return nil, fmt.Errorf("shape[%d]=%d is not positive", i, v)
			}
			out[i] = int64(v)
		case int64:
			if v < 1 {
				return nil, fmt.Errorf("shape[%d]=%d is not positive", i, v)
			}
			out[i] = v
		case string:
			if strings.TrimSpace(v) == "" {
				return nil, fmt.Errorf("shape[%d] has empty symbolic dimension", i)
			}
			out[i] = 1
		default:
			return nil, fmt.Errorf("shape[%d] has unsupported type %T", i, dim)
		}
	}
	return out, nil
}

// staticShape reports the declared dims of a node when every dim is a fixed
// positive integer. Symbolic dims make the shape dynamic.
func staticShape(shape []any) ([]int64, bool) {
	out := make([]int64, len(shape))
	for i, dim := range shape {
		switch v := dim.(type) {
		case float64:
			if v < 1 || v != math.Trunc(v) {
				return nil, false
			}
			out[i] = int64(v)
		case int:
			if v < 1 {
				return nil, false
			}
			out[i] = int64(v)
		case int64:
			if v < 1 {
				return nil, false
			}
			out[i] = v
		default:
			return nil, false
		}
	}
	return out, len(out) > 0
}

func validateShapeAgainstData(shape []int64, dataLen int) error {
	count, err := elementCount(shape)
	if err != nil {
		return err
	}
	if count != dataLen {
		return fmt.Errorf("shape %v expects %d elements, got %d", shape, count, dataLen)
	}
	return nil
}

func elementCount(shape []int64) (int, error) {
	if len(shape) == 0 {
		return 1, nil
	}
	count := int64(1)
	for i, dim := range shape {
		if dim < 0 {
			return 0, fmt.Errorf("shape[%d]=%d is negative", i, dim)
		}
		if dim == 0 {
			return 0, nil
		}
		if count > math.MaxInt64/dim {
			return 0, fmt.Errorf("shape %v overflows element count", shape)
		}
		count *= dim
	}
	if count > int64(math.MaxInt) {
		return 0, fmt.Errorf("shape %v exceeds platform int capacity", shape)
	}
	return int(count), nil
}

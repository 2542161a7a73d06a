package boundary

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gotorch/internal/handle"
	"github.com/born-ml/gotorch/internal/jit"
	"github.com/born-ml/gotorch/internal/tensor"
)

type tensorEntry struct {
	t *tensor.RawTensor
}

func (e *tensorEntry) Drop() { e.t.Release() }

// store is a tensor handle store over a real handle table.
type store struct {
	table     *handle.Table
	allocs    int
	failAfter int // fail the allocation after this many successes, 0 = never
}

func newStore() *store {
	return &store{table: handle.NewTable(nil)}
}

func (s *store) AllocTensor(t *tensor.RawTensor) (handle.Handle, error) {
	if s.failAfter > 0 && s.allocs == s.failAfter {
		return handle.Invalid, errors.New("out of handles")
	}
	s.allocs++
	return s.table.Insert(handle.KindTensor, &tensorEntry{t: t})
}

func (s *store) ResolveTensor(h handle.Handle) (*tensor.RawTensor, error) {
	e, err := handle.Get[*tensorEntry](s.table, h, handle.KindTensor)
	if err != nil {
		return nil, err
	}
	return e.t, nil
}

func (s *store) ReleaseTensor(h handle.Handle) error {
	_, err := s.table.Remove(h, handle.KindTensor)
	return err
}

func vec(t *testing.T, values ...float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromSlice(values, tensor.Shape{len(values)})
	require.NoError(t, err)
	return raw
}

func floats(t *testing.T, s *store, h handle.Handle) []float32 {
	t.Helper()
	raw, err := s.ResolveTensor(h)
	require.NoError(t, err)
	return tensor.Elems[float32](raw)
}

func TestEncodeTensor(t *testing.T) {
	s := newStore()
	x := vec(t, 1, 2, 3)

	v, err := Encode(jit.TensorValue(x), s)
	require.NoError(t, err)
	assert.Equal(t, TagTensor, v.Tag)
	assert.Equal(t, 0, v.Len())
	assert.Equal(t, []float32{1, 2, 3}, floats(t, s, v.Tensor))

	// The handle holds its own reference.
	x.Release()
	assert.Equal(t, []float32{1, 2, 3}, floats(t, s, v.Tensor))

	require.NoError(t, Free(v, s))
	assert.Zero(t, s.table.Len())
}

func TestEncodeNestedTuple(t *testing.T) {
	s := newStore()
	a, b, c := vec(t, 1), vec(t, 2), vec(t, 3)

	v, err := Encode(jit.TupleValue(jit.TensorValue(a), jit.TupleValue(jit.TensorValue(b), jit.TensorValue(c))), s)
	require.NoError(t, err)

	require.Equal(t, TagTuple, v.Tag)
	require.Equal(t, 2, v.Len())
	assert.Equal(t, []float32{1}, floats(t, s, v.At(0).Tensor))
	inner := v.At(1)
	require.Equal(t, 2, inner.Len())
	assert.Equal(t, []float32{2}, floats(t, s, inner.At(0).Tensor))
	assert.Equal(t, []float32{3}, floats(t, s, inner.At(1).Tensor))

	hs, err := v.Handles()
	require.NoError(t, err)
	assert.Equal(t, []handle.Handle{v.At(0).Tensor, inner.At(0).Tensor, inner.At(1).Tensor}, hs)

	require.NoError(t, Free(v, s))
	assert.Zero(t, s.table.Len())
}

func TestEncodeEmptyTuple(t *testing.T) {
	s := newStore()
	v, err := Encode(jit.TupleValue(), s)
	require.NoError(t, err)
	assert.Equal(t, TagTuple, v.Tag)
	assert.Equal(t, 0, v.Len())
	assert.NotNil(t, v.Elements)
	assert.Zero(t, s.table.Len())
}

func TestEncodeUnsupportedKind(t *testing.T) {
	cases := map[string]jit.Value{
		"int":            jit.IntValue(3),
		"float":          jit.FloatValue(1.5),
		"bool":           jit.BoolValue(true),
		"none":           jit.NoneValue(),
		"int in tuple":   jit.TupleValue(jit.TensorValue(vec(t, 1)), jit.IntValue(2)),
		"none in nested": jit.TupleValue(jit.TensorValue(vec(t, 1)), jit.TupleValue(jit.TensorValue(vec(t, 2)), jit.NoneValue())),
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			v, err := Encode(value, s)
			require.ErrorIs(t, err, ErrUnsupportedKind)
			assert.Equal(t, TagNone, v.Tag)
			assert.Zero(t, s.table.Len(), "partial allocations must be released")
		})
	}
}

func TestEncodeAllocationFailure(t *testing.T) {
	s := newStore()
	s.failAfter = 2

	value := jit.TupleValue(jit.TensorValue(vec(t, 1)), jit.TensorValue(vec(t, 2)), jit.TensorValue(vec(t, 3)))
	_, err := Encode(value, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of handles")
	assert.Zero(t, s.table.Len())
}

func nest(v jit.Value, levels int) jit.Value {
	for i := 0; i < levels; i++ {
		v = jit.TupleValue(v)
	}
	return v
}

func TestDepthLimit(t *testing.T) {
	codec := Codec{MaxDepth: 3}

	s := newStore()
	v, err := codec.Encode(nest(jit.TensorValue(vec(t, 1)), 2), s)
	require.NoError(t, err)
	require.NoError(t, codec.Free(v, s))

	_, err = codec.Encode(nest(jit.TensorValue(vec(t, 1)), 3), s)
	require.ErrorIs(t, err, ErrTooDeep)
	assert.Zero(t, s.table.Len())

	deep := TupleValue(TupleValue(TupleValue(TensorValue(handle.Handle(1)))))
	_, err = codec.Decode(deep, s)
	assert.ErrorIs(t, err, ErrTooDeep)
	assert.ErrorIs(t, codec.Free(deep, s), ErrTooDeep)
	assert.ErrorIs(t, deep.Walk(3, func(Value, int) bool { return true }), ErrTooDeep)
}

func TestDefaultDepthIsIterative(t *testing.T) {
	s := newStore()
	value := nest(jit.TensorValue(vec(t, 4)), DefaultMaxDepth-1)

	v, err := Encode(value, s)
	require.NoError(t, err)

	back, err := Decode(v, s)
	require.NoError(t, err)
	for i := 0; i < DefaultMaxDepth-1; i++ {
		require.Equal(t, jit.KindTuple, back.Kind())
		back = back.At(0)
	}
	assert.Equal(t, []float32{4}, tensor.Elems[float32](back.Tensor()))

	require.NoError(t, Free(v, s))
	_, err = Encode(nest(jit.TensorValue(vec(t, 4)), DefaultMaxDepth), s)
	assert.ErrorIs(t, err, ErrTooDeep)
}

func TestCyclicTree(t *testing.T) {
	s := newStore()
	cyclic := Value{Tag: TagTuple, Elements: make([]Value, 2)}
	cyclic.Elements[0] = cyclic
	cyclic.Elements[1] = cyclic

	_, err := Decode(cyclic, s)
	assert.ErrorIs(t, err, ErrTooDeep)
	assert.ErrorIs(t, Free(cyclic, s), ErrTooDeep)
	_, err = cyclic.Handles()
	assert.ErrorIs(t, err, ErrTooDeep)
	assert.Contains(t, cyclic.String(), "...")
}

func TestDecode(t *testing.T) {
	s := newStore()
	a, err := s.AllocTensor(vec(t, 1, 2))
	require.NoError(t, err)
	b, err := s.AllocTensor(vec(t, 3))
	require.NoError(t, err)

	v, err := Decode(TupleValue(TensorValue(b), TupleValue(), TensorValue(a)), s)
	require.NoError(t, err)
	require.Equal(t, jit.KindTuple, v.Kind())
	require.Equal(t, 3, v.Len())
	assert.Equal(t, []float32{3}, tensor.Elems[float32](v.At(0).Tensor()))
	assert.Equal(t, 0, v.At(1).Len())
	assert.Equal(t, []float32{1, 2}, tensor.Elems[float32](v.At(2).Tensor()))
	assert.Equal(t, "Tuple[Tensor, Tuple[()], Tensor]", v.Type().String())
}

func TestDecodeErrors(t *testing.T) {
	s := newStore()
	h, err := s.AllocTensor(vec(t, 1))
	require.NoError(t, err)
	require.NoError(t, s.ReleaseTensor(h))

	_, err = Decode(TensorValue(h), s)
	assert.ErrorIs(t, err, handle.ErrInvalidHandle)

	_, err = Decode(Value{}, s)
	assert.ErrorIs(t, err, ErrInvalidTag)

	_, err = Decode(TupleValue(Value{Tag: Tag(9)}), s)
	assert.ErrorIs(t, err, ErrInvalidTag)
}

func TestFreeContinuesPastErrors(t *testing.T) {
	s := newStore()
	a, err := s.AllocTensor(vec(t, 1))
	require.NoError(t, err)
	b, err := s.AllocTensor(vec(t, 2))
	require.NoError(t, err)
	require.NoError(t, s.ReleaseTensor(a))

	err = Free(TupleValue(TensorValue(a), Value{Tag: Tag(5)}, TensorValue(b)), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, handle.ErrInvalidHandle)
	assert.ErrorIs(t, err, ErrInvalidTag)
	assert.Zero(t, s.table.Len(), "b must still be released")
}

func TestWalkStopsEarly(t *testing.T) {
	v := TupleValue(TensorValue(1), TupleValue(TensorValue(2)), TensorValue(3))

	var seen []Tag
	err := v.Walk(0, func(node Value, depth int) bool {
		seen = append(seen, node.Tag)
		return len(seen) < 3
	})
	require.NoError(t, err)
	assert.Equal(t, []Tag{TagTuple, TagTensor, TagTuple}, seen)
}

func TestValueString(t *testing.T) {
	v := TupleValue(TensorValue(handle.Handle(1)), TupleValue(TensorValue(handle.Handle(2))))
	assert.Equal(t, "(handle(0@0), (handle(1@0),))", v.String())
	assert.Equal(t, "none", Value{}.String())
	assert.Equal(t, "tag(7)", Tag(7).String())
	assert.Panics(t, func() { TensorValue(1).At(0) })
}

func TestValueStringDeep(t *testing.T) {
	v := TensorValue(handle.Handle(1))
	for i := 0; i < 4*DefaultMaxDepth; i++ {
		v = TupleValue(v)
	}

	out := v.String()
	assert.Equal(t, DefaultMaxDepth, strings.Count(out, "("))
	assert.Equal(t, DefaultMaxDepth, strings.Count(out, ")"))
	assert.Contains(t, out, "(...,)")
	assert.NotContains(t, out, "handle")
}

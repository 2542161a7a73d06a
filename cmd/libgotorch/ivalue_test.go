//go:build cgo

package main

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gotorch/capi"
	"github.com/born-ml/gotorch/internal/boundary"
)

const nestedScript = `
def f(x):
    return x, (x + x, x)
`

func compileMethod(t *testing.T, script, name string) (cModule, cMethod) {
	t.Helper()
	src := cString(script)
	defer freeCString(src)
	var cErr cError

	mod := Torch_CompileTorchScript(src, &cErr)
	require.Empty(t, errorMessage(&cErr))
	require.NotZero(t, mod)

	n := cString(name)
	defer freeCString(n)
	m := Torch_JITModuleGetMethod(mod, n, &cErr)
	require.Empty(t, errorMessage(&cErr))
	require.NotZero(t, m)

	t.Cleanup(func() {
		var cErr cError
		Torch_DeleteJITModuleMethod(m, &cErr)
		Torch_DeleteJITModule(mod, &cErr)
		assert.Empty(t, errorMessage(&cErr))
	})
	return mod, m
}

func newInput(t *testing.T, data []float32) capi.Handle {
	t.Helper()
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), 4*len(data))
	h, err := rt.NewTensorCopy(raw, []int64{int64(len(data))}, capi.Float)
	require.NoError(t, err)
	return h
}

func TestMethodRunNestedTuple(t *testing.T) {
	before := rt.Stats().Total()
	_, m := compileMethod(t, nestedScript, "f")
	x := newInput(t, []float32{1, 2})

	var in cIValue
	require.NoError(t, toIValue(&in, boundary.TensorValue(x)))

	var out cIValue
	var cErr cError
	Torch_JITModuleMethodRun(m, &in, 1, &out, &cErr)
	require.Empty(t, errorMessage(&cErr))

	require.EqualValues(t, itypeTuple, out.itype)
	top := tupleItems(&out)
	require.Len(t, top, 2)
	assert.EqualValues(t, itypeTensor, top[0].itype)
	assert.NotEqual(t, x, capi.Handle(top[0].tensor), "results are new handles")

	inner := tupleItems(&top[1])
	require.Len(t, inner, 2)
	doubled := capi.Handle(inner[0].tensor)
	raw, err := rt.TensorBytes(doubled)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 4}, unsafe.Slice((*float32)(unsafe.Pointer(&raw[0])), 2))

	// Hand the data and shape of every result to C so they get pinned.
	for _, h := range []capi.Handle{capi.Handle(top[0].tensor), doubled, capi.Handle(inner[1].tensor)} {
		require.NotNil(t, Torch_TensorValue(cTensor(h), &cErr))
		var dims cSize
		require.NotNil(t, Torch_TensorShape(cTensor(h), &dims, &cErr))
		assert.EqualValues(t, 1, dims)
	}
	require.Empty(t, errorMessage(&cErr))
	assert.Equal(t, 3, pins.len())

	Torch_FreeIValue(&out, 1)
	assert.EqualValues(t, itypeNone, out.itype)
	assert.Nil(t, out.tuple)
	assert.Equal(t, 0, pins.len())

	// The input is still the caller's.
	require.NoError(t, freeIValue(&in, true))
	assert.Equal(t, before+2, rt.Stats().Total(), "only the module and method remain")
}

func TestMethodRunTupleInput(t *testing.T) {
	_, m := compileMethod(t, "def sum(p: Tuple[Tensor, Tensor]):\n    a, b = p\n    return a + b\n", "sum")
	a := newInput(t, []float32{1, 2})
	b := newInput(t, []float32{10, 20})
	defer func() {
		assert.NoError(t, releaseTensor(a))
		assert.NoError(t, releaseTensor(b))
	}()

	var in cIValue
	require.NoError(t, toIValue(&in, boundary.TupleValue(boundary.TensorValue(a), boundary.TensorValue(b))))
	defer func() { assert.NoError(t, freeIValue(&in, false)) }()

	got, err := fromIValue(&in, 0)
	require.NoError(t, err)
	assert.Equal(t, "("+a.String()+", "+b.String()+")", got.String())

	var out cIValue
	var cErr cError
	Torch_JITModuleMethodRun(m, &in, 1, &out, &cErr)
	require.Empty(t, errorMessage(&cErr))
	require.EqualValues(t, itypeTensor, out.itype)

	raw, err := rt.TensorBytes(capi.Handle(out.tensor))
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 22}, unsafe.Slice((*float32)(unsafe.Pointer(&raw[0])), 2))
	Torch_FreeIValue(&out, 1)
}

func TestMethodRunBadInputs(t *testing.T) {
	before := rt.Stats().Total()
	_, m := compileMethod(t, "def f(x):\n    return x\n", "f")

	bad := withIType(9)
	_, err := fromIValue(&bad, 0)
	assert.ErrorIs(t, err, capi.ErrInvalidTag)

	missing := nilTuple()
	_, err = fromIValue(&missing, 0)
	assert.ErrorIs(t, err, errNilPointer)

	for _, in := range []cIValue{bad, missing} {
		out := withIType(itypeTensor)
		var cErr cError
		Torch_JITModuleMethodRun(m, &in, 1, &out, &cErr)
		assert.NotEmpty(t, errorMessage(&cErr))
		assert.EqualValues(t, itypeNone, out.itype, "output is reset on failure")
	}

	var out cIValue
	var cErr cError
	Torch_JITModuleMethodRun(m, nil, 1, &out, &cErr)
	assert.Contains(t, errorMessage(&cErr), errNilPointer.Error())

	Torch_JITModuleMethodRun(m, nil, 0, nil, &cErr)
	assert.Contains(t, errorMessage(&cErr), "output")

	// Freeing a value with a missing tuple or unknown tag is a no-op.
	assert.NoError(t, freeIValue(&missing, true))
	assert.NoError(t, freeIValue(&bad, true))
	Torch_FreeIValue(nil, 1)
	assert.Equal(t, before+2, rt.Stats().Total())
}

func TestFromIValueDepth(t *testing.T) {
	x := newInput(t, []float32{1})
	defer func() { assert.NoError(t, releaseTensor(x)) }()

	v := boundary.TensorValue(x)
	for i := 0; i < rt.MaxDepth(); i++ {
		v = boundary.TupleValue(v)
	}
	var in cIValue
	require.NoError(t, toIValue(&in, v))
	defer func() { assert.NoError(t, freeIValue(&in, false)) }()

	_, err := fromIValue(&in, 0)
	assert.ErrorIs(t, err, capi.ErrTooDeep)
}

func TestMethodNamesAndArguments(t *testing.T) {
	mod, m := compileMethod(t, "def f(x):\n    return x, (x + x, x)\n\ndef g(a, b):\n    return a\n", "f")
	var cErr cError
	var size cSize

	names := Torch_JITModuleGetMethodNames(mod, &size, &cErr)
	require.Empty(t, errorMessage(&cErr))
	assert.Equal(t, []string{"f", "g"}, goStrings(names, size))
	Torch_FreeStrings(names, size)

	args := Torch_JITModuleMethodArguments(m, &size, &cErr)
	require.Empty(t, errorMessage(&cErr))
	assert.Equal(t, []capi.Argument{{Name: "x", Type: "Tensor"}}, goArguments(args, size))
	Torch_FreeArguments(args, size)

	rets := Torch_JITModuleMethodReturns(m, &size, &cErr)
	require.Empty(t, errorMessage(&cErr))
	got := goArguments(rets, size)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Type, "Tuple")
	Torch_FreeArguments(rets, size)

	// Empty results come back as nil and are safe to free.
	p, err := cStrings(nil)
	require.NoError(t, err)
	assert.Nil(t, p)
	Torch_FreeStrings(nil, 0)
	Torch_FreeArguments(nil, 0)

	Torch_JITModuleGetMethodNames(mod, nil, &cErr)
	assert.Contains(t, errorMessage(&cErr), "size")
	Torch_JITModuleGetMethodNames(0, &size, &cErr)
	assert.NotEmpty(t, errorMessage(&cErr))
	assert.Zero(t, size)
}

func TestCopiedArrays(t *testing.T) {
	in := []string{"forward", "", "héllo"}
	p, err := cStrings(in)
	require.NoError(t, err)
	assert.Equal(t, in, goStrings(p, cSize(len(in))))
	Torch_FreeStrings(p, cSize(len(in)))

	descs := []capi.Argument{{Name: "self", Type: "__torch__.Module"}, {Name: "x", Type: "Tensor"}}
	a, err := cArguments(descs)
	require.NoError(t, err)
	assert.Equal(t, descs, goArguments(a, cSize(len(descs))))
	Torch_FreeArguments(a, cSize(len(descs)))
}

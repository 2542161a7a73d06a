package tensor

// Backend defines the operations the script interpreter needs from a
// compute backend. Implementations never modify their inputs: a tensor
// handed in from the boundary may alias caller memory.
//
// Implementations panic on shape or dtype errors; callers that need an
// error value recover at their own boundary.
type Backend interface {
	// Element-wise binary operations with broadcasting and type promotion
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, dim0, dim1 int) *RawTensor
	Cat(tensors []*RawTensor, dim int) *RawTensor

	// Element-wise unary operations
	Neg(x *RawTensor) *RawTensor
	Abs(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor

	// Reductions
	Sum(x *RawTensor) *RawTensor
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	Mean(x *RawTensor) *RawTensor

	// Type conversion
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Metadata
	Name() string
	Device() Device
}

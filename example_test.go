// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package torch_test

import (
	"fmt"

	torch "github.com/born-ml/gotorch"
)

func ExampleCompileTorchScript() {
	module, _ := torch.CompileTorchScript(`
		def sum(a, b):
			return a + b
	`)

	a, _ := torch.NewTensor([]float32{1})
	b, _ := torch.NewTensor([]float32{2})

	result, _ := module.RunMethod("sum", a, b)
	fmt.Printf("[1] + [2] = %+v\n", result.(*torch.Tensor).Value())
	// Output: [1] + [2] = [3]
}

func ExampleJITModuleMethod_Arguments() {
	module, _ := torch.CompileTorchScript(`
		def scale(x, factor: float) -> Tensor:
			return x * factor
	`)
	method, _ := module.GetMethod("scale")

	for _, arg := range method.Arguments() {
		fmt.Println(arg.Name, arg.Type)
	}
	fmt.Println(method.Returns()[0].Type)
	// Output:
	// x Tensor
	// factor float
	// Tensor
}

func ExamplePrintTensors() {
	t, _ := torch.NewTensor([][]float32{{1, 2}, {3, 4}})
	_ = torch.PrintTensors(t)
	// Output:
	//  1.0000 2.0000
	//  3.0000 4.0000
	// [ CPUFloatType{2,2} ]
}

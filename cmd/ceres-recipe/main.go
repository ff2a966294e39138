package main

import "github.com/goplus/ceres-recipe/cmd/ceres-recipe/internal"

func main() {
	internal.Execute()
}

//go:build !(js && wasm)

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "gopostr WASM client: build with GOOS=js GOARCH=wasm go build ./clients/wasm/")
	os.Exit(1)
}

package main

import (
	"fmt"
	"os"

	"github.com/omarespejel/starknet-unity-clicker-demo/internal/starknet"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/selector.go <entrypoint-name>\n")
		os.Exit(1)
	}

	fmt.Println(starknet.SelectorFromName(os.Args[1]))
}

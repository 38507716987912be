package main

import (
	"fmt"
	"os"
)

func main() {
	defer fmt.Println("flushed")
	if len(os.Args) > 3 {
		os.Exit(2) // want `os.Exit in main.main skips deferred calls`
	}
	func() {
		os.Exit(0)
	}()
	helper()
}

func helper() {
	os.Exit(1)
}

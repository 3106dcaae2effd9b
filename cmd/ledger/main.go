package main

import (
	"os"
)

func main() {
	if err := run(newApp(os.Stdout, os.Stderr), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

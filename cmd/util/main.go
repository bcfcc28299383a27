package main

import (
	"github.com/onflow/certstore/cmd/util/cmd"
)

func main() {
	cmd.Execute()
}

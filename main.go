package main

import "github.com/codeswap/codeswap/cmd"

func main() {
	cmd.Execute()
}

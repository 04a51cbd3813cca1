package main

import "github.com/fexlab/fexmine/cmd"

func main() {
	cmd.Execute()
}

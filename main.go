package main

import "github.com/itohio/kuuki/cmd"

func main() {
	cmd.Execute()
}

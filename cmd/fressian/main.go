package main

import "github.com/rawbytedev/fressian/cmd/fressian/cmd"

func main() {
	cmd.Execute()
}

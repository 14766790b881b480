package main

import "github.com/shot02/face-identifier/cmd"

func main() {
	cmd.Execute()
}

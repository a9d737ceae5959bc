package main

import "github.com/oshokin/tunestash/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/denysvitali/aperture-graph/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/leadbasehq/leadbase/cmd"

func main() {
	cmd.Execute()
}

package main

import (
	"veestributes/cmd"
)

func main() {
	cmd.Execute()
}

package main

import "github.com/crystaldolphin/context7-launcher/cmd"

func main() {
	cmd.Execute()
}

package main

import "epubfit/cmd"

func main() {
	cmd.Execute()
}

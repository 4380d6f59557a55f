package main

import "github.com/iksnae/cursor-chat-browser/cmd"

func main() {
	cmd.Execute()
}

package main

import "intro-bot/cmd"

func main() {
	cmd.Execute()
}

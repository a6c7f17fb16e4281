package main

import "ideawall/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/vkoski/daybook/cmd"

func main() {
	cmd.Execute()
}

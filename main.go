package main

import "github.com/KaramelBytes/finnorm-cli/cmd"

func main() {
	cmd.Execute()
}

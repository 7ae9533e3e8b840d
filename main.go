package main

import "github.com/omdiwan06/CricketRAG/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/decyjphr/github-repository-analysis/cmd"

func main() {
	cmd.Execute()
}

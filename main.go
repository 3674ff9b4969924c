package main

import "github.com/chaos-io/silhouette/cmd"

func main() {
	cmd.Execute()
}

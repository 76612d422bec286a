package main

import "forumdb/cmd/forumctl/cmd"

func main() {
	cmd.Execute()
}

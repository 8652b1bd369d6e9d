package main

import "github.com/lmazure/GitLabInjector/cmd/gitlab-injector/commands"

func main() {
	commands.Execute()
}

package main

import "github.com/frahmantamala/user-management/cmd"

func main() {
	cmd.Execute()
}

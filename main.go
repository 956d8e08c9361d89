package main

import "github.com/frahmantamala/healthrecord-management/cmd"

func main() {
	cmd.Execute()
}

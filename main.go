package main

import "github.com/frahmantamala/pos-helpdesk/cmd"

func main() {
	cmd.Execute()
}

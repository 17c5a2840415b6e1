package main

import (
	"github.com/talkingpet/storefront/cmd"
)

func main() {
	cmd.Start()
}

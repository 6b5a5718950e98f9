package main

import (
	"log"

	"github.com/thenoetrevino/kanso/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

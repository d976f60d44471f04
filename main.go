package main

import (
	"log"

	"github.com/spigell/shl-recommender/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

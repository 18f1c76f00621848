package main

import (
	"github.com/imrishuroy/go-support-chatbot/internal/cli"

	_ "time/tzdata"
)

func main() {
	cli.Execute()
}

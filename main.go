package main

import "github.com/lu-zhengda/mailmirror/internal/cli"

func main() {
	cli.Execute()
}

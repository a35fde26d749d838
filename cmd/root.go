package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "pestel"}

	root.AddCommand(serveCMD(), migrateCMD(), replayCMD(), scoreCMD())
	_ = root.Execute()
}

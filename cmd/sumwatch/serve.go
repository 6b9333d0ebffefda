package main

import (
	"github.com/spf13/cobra"

	"github.com/sumwatch/sumwatch/internal/api"
	"github.com/sumwatch/sumwatch/internal/checksum"
	"github.com/sumwatch/sumwatch/internal/log"
)

// defaultPort is the loopback API port.
const defaultPort = 8643

var servePortFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the loopback verification API",
	Long: `Run an HTTP API bound to 127.0.0.1 only. Scanning contexts post
checksum records to it, mark downloads complete, and trigger
verification of the downloaded files.`,
	Run: func(cmd *cobra.Command, args []string) {
		store, ucfg := openStore()

		v := checksum.New()
		v.ChunkSize = ucfg.ChunkSizeBytes
		v.StopOnMatch = !ucfg.VerifyAllAlgorithms

		srv := api.NewServer(store, v, log.Default())
		printInfof("Listening on 127.0.0.1:%d\n", servePortFlag)
		if err := srv.ListenAndServe(servePortFlag); err != nil {
			printError(err)
			exitWithCode(ExitError)
		}
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePortFlag, "port", defaultPort, "Port to listen on (loopback only)")
}

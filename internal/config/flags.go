package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/moviecp/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-w string   watch directory
//	-m string   destination mount path
//	-f string   destination target folder
//	-n string   renamer executable path
//	-s int      stability interval, seconds
//	-j int      validation worker count
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - The stability interval is accepted as an integer in seconds and then
//     converted to a time.Duration. The remaining settings are JSON-only.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-w", "-m", "-f", "-n", "-s", "-j"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.WatchDir, "w", config.WatchDir, "watch directory")
	fs.StringVar(&config.MountPath, "m", config.MountPath, "destination mount path")
	fs.StringVar(&config.TargetFolder, "f", config.TargetFolder, "destination target folder")
	fs.StringVar(&config.RenamerPath, "n", config.RenamerPath, "renamer executable path")

	stableSeconds := fs.Int("s", int(config.StableInterval.Seconds()), "stability interval (in seconds)")
	fs.IntVar(&config.WorkerCount, "j", config.WorkerCount, "validation worker count")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.StableInterval = time.Duration(*stableSeconds) * time.Second
}

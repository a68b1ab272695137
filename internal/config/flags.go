package config

import (
	"flag"
	"os"

	"github.com/konturpay/kontur-go/internal/flagx"
)

// parseFlags overlays Config with values from the flags this package owns:
//
//	-a string   host URL of the kontur-client instance
//	-s string   storage directory
//
// os.Args is filtered first so flags owned by other components pass through.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s"})

	fs := flag.NewFlagSet("konturcli", flag.ContinueOnError)
	fs.StringVar(&cfg.Host, "a", cfg.Host, "host URL of the kontur-client instance")
	fs.StringVar(&cfg.StorageDir, "s", cfg.StorageDir, "storage directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

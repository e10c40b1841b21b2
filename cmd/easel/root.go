package main

import (
	"fmt"
	"os"

	"github.com/aretw0/easel/internal/cli"
	"github.com/aretw0/easel/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "easel",
	Short: "Easel drives block editors through scripted scenarios",
	Long: `Easel opens a post editor in a browser, runs the steps of a YAML scenario
(title, blocks, settings panels, preview, publish) and records every run.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.Bool("debug", false, "Log workflows and status changes")
	flags.String("store", cli.StoreFile, "Run store: memory, file or redis")
	flags.String("store-dir", file.DefaultDir, "Directory of the file store")
	flags.String("redis-url", os.Getenv("EASEL_REDIS_URL"), "Redis URL of the redis store")
	flags.Duration("lease-ttl", 0, "Expiry of distributed account leases (redis store)")
	flags.String("encryption-key", os.Getenv("EASEL_ENCRYPTION_KEY"), "AES-256 key sealing stored runs (base64 or hex)")
	flags.StringSlice("redact", nil, "Patterns of outputs and step actions masked before storage")
	flags.String("browser", cli.BrowserChrome, "Browser backend: chrome or memory")
	flags.Bool("headless", true, "Run Chrome without a window")
	flags.String("exec-path", "", "Chrome executable (default: auto-detected)")
	flags.String("remote", "", "DevTools websocket URL of a running browser")
	flags.Duration("slow-mo", 0, "Delay before every click and keystroke")
}

// envOptions reads the persistent flags shared by every command.
func envOptions(cmd *cobra.Command) cli.EnvOptions {
	flags := cmd.Flags()
	var opts cli.EnvOptions
	opts.Store, _ = flags.GetString("store")
	opts.StoreDir, _ = flags.GetString("store-dir")
	opts.RedisURL, _ = flags.GetString("redis-url")
	opts.LeaseTTL, _ = flags.GetDuration("lease-ttl")
	opts.EncryptionKey, _ = flags.GetString("encryption-key")
	opts.Redact, _ = flags.GetStringSlice("redact")
	opts.Browser, _ = flags.GetString("browser")
	opts.Headless, _ = flags.GetBool("headless")
	opts.ExecPath, _ = flags.GetString("exec-path")
	opts.Remote, _ = flags.GetString("remote")
	opts.SlowMo, _ = flags.GetDuration("slow-mo")
	return opts
}

func debugFlag(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}

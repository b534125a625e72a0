package cmd

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"
)

var rootCmd = &cobra.Command{
	Use:               "bafangtool",
	Short:             "Bafang e-bike configuration tool",
	Long:              `Read, monitor and write the parameters of Bafang CAN units and BBS UART motors`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

const (
	flagConfig   = "config"
	flagPort     = "port"
	flagBaudrate = "baudrate"
	flagCANRate  = "canrate"
	flagDebug    = "debug"
	flagAdapter  = "adapter"
	flagDemo     = "demo"
	flagLogLevel = "log-level"
	flagLogFile  = "log-file"
	flagRedis    = "redis"
	flagTimeout  = "timeout"
	flagRetries  = "retries"
	flagYes      = "yes"
)

var (
	cfg    *config.Config
	logger *gobafang.LeveledLogger
)

func init() {
	log.SetFlags(log.Lshortfile | log.LstdFlags)

	pf := rootCmd.PersistentFlags()
	pf.StringP(flagConfig, "c", "", "yaml config file")
	pf.StringP(flagPort, "p", "*", "com-port, * = print available")
	pf.IntP(flagBaudrate, "b", 0, "port baudrate, 0 = adapter default")
	pf.Float64(flagCANRate, 250, "CAN rate in kbit/s")
	pf.BoolP(flagDebug, "d", false, "debug mode")
	pf.StringP(flagAdapter, "a", "SLCAN", "what adapter to use")
	pf.Bool(flagDemo, false, "demo mode, no hardware needed")
	pf.String(flagLogLevel, "info", "none, error, warn, info or debug")
	pf.String(flagLogFile, "", "also log to this file, rotated at 10MB")
	pf.String(flagRedis, "", "redis address to publish telemetry to")
	pf.Int(flagTimeout, 1000, "request timeout in ms")
	pf.Int(flagRetries, 3, "request retries")
}

// setup loads the config file and lets explicitly set flags override it
func setup(cmd *cobra.Command, _ []string) error {
	pf := cmd.Flags()
	path, _ := pf.GetString(flagConfig)
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	pf.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case flagPort:
			c.Adapter.Port = f.Value.String()
		case flagBaudrate:
			c.Adapter.Baudrate, _ = pf.GetInt(flagBaudrate)
		case flagCANRate:
			c.Adapter.CANRate, _ = pf.GetFloat64(flagCANRate)
		case flagDebug:
			c.Adapter.Debug, _ = pf.GetBool(flagDebug)
		case flagAdapter:
			c.Adapter.Name = f.Value.String()
		case flagDemo:
			c.Demo, _ = pf.GetBool(flagDemo)
		case flagLogLevel:
			c.Log.Level = f.Value.String()
		case flagLogFile:
			c.Log.File = f.Value.String()
		case flagRedis:
			c.Redis.Addr = f.Value.String()
		case flagTimeout:
			c.Request.TimeoutMs, _ = pf.GetInt(flagTimeout)
		case flagRetries:
			c.Request.Retries, _ = pf.GetInt(flagRetries)
		}
	})
	if c.Adapter.Port == "" {
		c.Adapter.Port = "*"
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	var out io.Writer = os.Stderr
	if cfg.Log.File != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		})
		log.SetOutput(out)
	}
	level := gobafang.ParseLogLevel(cfg.Log.Level)
	if cfg.Adapter.Debug {
		level = gobafang.LogLevelDebug
	}
	logger = gobafang.NewLeveledLogger(log.New(out, "", log.Lshortfile|log.LstdFlags), level)
	return nil
}

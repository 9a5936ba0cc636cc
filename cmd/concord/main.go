package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	concord "github.com/concord-labs/concord"
)

func main() {
	configurationPath := flag.String("configuration", os.Getenv("CONFIGURATION_PATH"), "Path of configuration file")
	loggingLevel := flag.String("level", os.Getenv("LOGGING_LEVEL"), "Logging level")

	flag.Parse()

	// Missing .env files are not an error, environment may be set
	// directly.
	_ = godotenv.Load()

	if *configurationPath == "" {
		*configurationPath = "concord.yaml"
	}

	configuration, err := concord.LoadConfiguration(*configurationPath)
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	if token := os.Getenv("TOKEN"); token != "" {
		configuration.Token = token
	}

	if *loggingLevel != "" {
		configuration.Logging.Level = *loggingLevel
	}

	level, err := zerolog.ParseLevel(configuration.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}

	var writer zerolog.LevelWriter = zerolog.MultiLevelWriter(consoleWriter)

	if configuration.Logging.FileLoggingEnabled {
		writer = zerolog.MultiLevelWriter(consoleWriter, &lumberjack.Logger{
			Filename:   filepath.Join(configuration.Logging.Directory, configuration.Logging.Filename),
			MaxSize:    configuration.Logging.MaxSize,
			MaxBackups: configuration.Logging.MaxBackups,
			MaxAge:     configuration.Logging.MaxAge,
			Compress:   configuration.Logging.Compress,
		})
	}

	client := concord.NewConcord(&configuration, writer)

	err = client.Open()
	if err != nil {
		client.Logger.Panic().Err(err).Msg("Failed to open client")
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-signalCh

	client.Close()
}

// KisanDhan is a multilingual voice assistant core for crop advice and
// image-based disease diagnosis. This binary wires the session core to the
// speech host bridge and the generative gateway and drives it from a
// line-oriented console.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Atharv1136/KisanDhan/internal/bus"
	"github.com/Atharv1136/KisanDhan/internal/config"
	"github.com/Atharv1136/KisanDhan/internal/conversation"
	"github.com/Atharv1136/KisanDhan/internal/inference"
	"github.com/Atharv1136/KisanDhan/internal/language"
	"github.com/Atharv1136/KisanDhan/internal/logging"
	"github.com/Atharv1136/KisanDhan/internal/session"
	"github.com/Atharv1136/KisanDhan/internal/speech"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	showConfig := flag.Bool("config", false, "print config path and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("kisandhan %s\n", Version)
		return
	}
	if *showConfig {
		dir, err := config.Dir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "config dir: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(dir)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "kisandhan: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(&logging.Config{
		LogDir:     cfg.Log.Dir,
		Level:      logging.LogLevel(cfg.Log.Level),
		Console:    cfg.Log.Console,
		MaxHistory: cfg.Log.MaxHistory,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()

	log := logger.Component("main")
	log.Info().Str("version", Version).Msg("KisanDhan starting")

	registry, err := language.NewRegistry(cfg.Session.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("language registry: %w", err)
	}

	eventBus := bus.NewEventBus()

	bridge := speech.NewBridge(&speech.BridgeConfig{
		URL:              cfg.Speech.BridgeURL,
		HandshakeTimeout: cfg.Speech.HandshakeTimeout,
		WriteTimeout:     cfg.Speech.WriteTimeout,
	}, logger.Zerolog())
	if err := bridge.Connect(context.Background()); err != nil {
		// The session degrades gracefully: capture operations surface the
		// localized capture-unavailable message instead of failing startup.
		log.Warn().Err(err).Msg("Speech host unreachable, capture will be unavailable")
	}
	defer bridge.Close()

	client := inference.NewClient(&inference.ClientConfig{
		ServerURL: cfg.Inference.ServerURL,
		Timeout:   cfg.Inference.Timeout,
	}, logger.Zerolog())

	healthCtx, cancelHealth := context.WithTimeout(context.Background(), 5*time.Second)
	if err := client.Health(healthCtx); err != nil {
		log.Warn().Err(err).Str("url", client.ServerURL()).Msg("Gateway health check failed")
	}
	cancelHealth()

	convLog := conversation.NewLog()

	sess := session.New(session.Deps{
		Recognizer:  bridge.Recognizer(),
		Synthesizer: bridge.Synthesizer(),
		Camera:      bridge.Camera(),
		Inferrer:    client,
		Log:         convLog,
		Registry:    registry,
		EventBus:    eventBus,
		Logger:      logger.Zerolog(),
	}, session.Config{
		ProcessingTimeout: cfg.Session.ProcessingTimeout,
		AudioEnabled:      cfg.Session.AudioEnabled,
	})
	defer sess.Close()

	// Live log-level adjustment without restart.
	watcher, err := config.Watch(logger.Zerolog(), func(next *config.Config) {
		logger.SetLevel(logging.LogLevel(next.Log.Level))
	})
	if err != nil {
		log.Warn().Err(err).Msg("Config watcher unavailable")
	} else {
		defer watcher.Close()
	}

	// Echo appended messages to the console as they arrive.
	eventBus.Subscribe(bus.EventTypeMessageAppended, func(e bus.Event) {
		id, _ := e.Data["messageId"].(int64)
		if msg, err := convLog.Get(id); err == nil {
			fmt.Printf("[%s] %s\n", msg.Role, msg.Text)
		}
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down")
		sess.Close()
		os.Exit(0)
	}()

	console(sess, convLog, registry, logger)
	return nil
}

// console reads commands from stdin until EOF or quit.
func console(sess *session.Session, convLog *conversation.Log, registry *language.Registry, logger *logging.Logger) {
	fmt.Println("commands: record | cancel | ask <text> | photo | market <crop> [location] | play <id> | lang <code> | mute | unmute | state | log | history | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "record":
			if err := sess.StartRecording(); err != nil {
				fmt.Printf("record: %v\n", err)
			}
		case "cancel":
			sess.CancelRecording()
		case "ask":
			if err := sess.Ask(strings.Join(fields[1:], " ")); err != nil {
				fmt.Printf("ask: %v\n", err)
			}
		case "photo":
			if err := sess.CapturePhoto(); err != nil {
				fmt.Printf("photo: %v\n", err)
			}
		case "market":
			if len(fields) < 2 {
				fmt.Println("usage: market <crop> [location]")
				continue
			}
			location := ""
			if len(fields) > 2 {
				location = strings.Join(fields[2:], " ")
			}
			if err := sess.MarketInsights(fields[1], location); err != nil {
				fmt.Printf("market: %v\n", err)
			}
		case "play":
			if len(fields) < 2 {
				fmt.Println("usage: play <message-id>")
				continue
			}
			id, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				fmt.Printf("play: bad message id %q\n", fields[1])
				continue
			}
			if err := sess.TogglePlayback(id); err != nil {
				fmt.Printf("play: %v\n", err)
			}
		case "lang":
			if len(fields) < 2 {
				fmt.Printf("usage: lang <code>; supported: %s\n", strings.Join(registry.Codes(), " "))
				continue
			}
			if err := sess.SetLanguage(fields[1]); err != nil {
				fmt.Printf("lang: %v\n", err)
			}
		case "mute":
			sess.SetAudioEnabled(false)
		case "unmute":
			sess.SetAudioEnabled(true)
		case "state":
			snap := sess.State()
			fmt.Printf("state=%s lang=%s audio=%v recording=%s processing=%s\n",
				snap.State, snap.Language, snap.AudioEnabled, snap.RecordingState, snap.ProcessingState)
			if snap.Playback != nil {
				fmt.Printf("playing message %d\n", snap.Playback.MessageID)
			}
		case "log":
			convLog.Each(func(msg conversation.Message) bool {
				fmt.Printf("%3d [%s|%s] %s\n", msg.ID, msg.Role, msg.Language, msg.Text)
				return true
			})
		case "history":
			for _, e := range logger.History(20) {
				fmt.Printf("%s %-5s %-14s %s\n", e.Timestamp, e.Level, e.Component, e.Message)
			}
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

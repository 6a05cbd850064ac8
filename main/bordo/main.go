package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	"github.com/jd3nn1s/bordo"
	"github.com/jd3nn1s/bordo/api"
	"github.com/jd3nn1s/bordo/assistant"
	"github.com/jd3nn1s/bordo/config"
	"github.com/jd3nn1s/bordo/forwarder"
	"github.com/jd3nn1s/bordo/notify"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var configPath = flag.String("config", "bordo.toml", "path to the configuration file")
var printTelemetry = flag.Bool("print-telemetry", false, "print telemetry to stdout")

// printer dumps every ingested record.
type printer struct{}

func (printer) Forward(prevRecord *bordo.TelemetryRecord, newRecord *bordo.TelemetryRecord) error {
	spew.Printf("%+v\n", *newRecord)
	return nil
}

func setupLogging(cfg *config.Config) {
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	if cfg.LogFile != "" {
		log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			Compress:   true,
		}))
	}
}

// logTaskExit reports a background task that stopped for any reason other than shutdown.
func logTaskExit(name string, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithField("task", name).WithField("err", err).Warn("background task stopped")
	}
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("unable to load configuration: ", err)
	}
	cfg.LoadEnv()
	setupLogging(&cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifiers := notify.Multi{notify.Log{}}
	if cfg.Pushover.Enabled() {
		push := notify.NewPushover(cfg.Pushover.Token, cfg.Pushover.User, cfg.Pushover.Title)
		go func() {
			logTaskExit("pushover", push.Start(ctx))
		}()
		notifiers = append(notifiers, push)
	}

	// the CAN forwarder joins the notifiers once the bus is enabled
	bd := bordo.NewBordo(&notifiers)
	bd.SetIntervals(cfg.SampleInterval(), cfg.MonitorInterval())
	if cfg.CAN.Enabled {
		notifiers = append(notifiers, bd.EnableCAN(cfg.CAN.Interface))
	}
	if cfg.UDP != nil {
		fwder, err := forwarder.NewUDPForwarder(cfg.UDP)
		if err != nil {
			log.Fatal("unable to load UDP forwarder: ", err)
		}
		defer fwder.Close()
		go func() {
			logTaskExit("udp forwarder", fwder.Start(ctx))
		}()
		bd.AddForwarder(fwder)
	}
	if *printTelemetry {
		bd.AddForwarder(printer{})
	}
	bd.Start(ctx)

	vehicle := assistant.NewVehicleControl()
	dispatcher := assistant.NewAssistant(bd, vehicle, assistant.NewKnowledgeBase())
	srv := api.NewServer(bd, vehicle, dispatcher)
	if err := srv.Run(ctx, cfg.API.Listen); err != nil {
		log.Error(err)
		stop()
	}

	bd.Stop()
	log.Info("bordo stopped")
}

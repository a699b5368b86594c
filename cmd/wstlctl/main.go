// wstlctl drives a WSTL18 logger over its serial line.
//
//	wstlctl -config wstlctl.yaml begin
//	wstlctl -config wstlctl.yaml end
//	wstlctl -config wstlctl.yaml -start 2024-05-01T10:00:00Z dump
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goburrow/serial"
	"github.com/golang/glog"

	"wstl-go/host/client"
	"wstl-go/host/export"
	"wstl-go/host/hostcfg"
	"wstl-go/types"
)

var (
	configPath = "wstlctl.yaml"
	wait       = 30 * time.Second
	start      string
)

func init() {
	if val := os.Getenv("WSTLCTL_CONFIG"); val != "" {
		configPath = val
	}
	flag.StringVar(&configPath, "config", configPath, "Path to the YAML config.")
	flag.DurationVar(&wait, "wait", wait, "How long to wait for the logger to signal readiness.")
	flag.StringVar(&start, "start", start, "RFC3339 session start, used to timestamp dumped samples.")
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] begin|end|dump\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	defer glog.Flush()
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := hostcfg.Load(configPath)
	if err != nil {
		glog.Exitf("config: %v", err)
	}

	port, err := serial.Open(&serial.Config{
		Address:  cfg.Serial.Port,
		BaudRate: cfg.Serial.Baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   cfg.Serial.Parity,
		Timeout:  cfg.Serial.Timeout(),
	})
	if err != nil {
		glog.Exitf("open %s: %v", cfg.Serial.Port, err)
	}
	defer port.Close()

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	c := client.New(port)

	switch cmd := flag.Arg(0); cmd {
	case "begin":
		err = c.Begin(ctx, time.Now())
	case "end":
		err = c.End(ctx, time.Now())
	case "dump":
		err = dump(ctx, c, cfg)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		glog.Exitf("%s: %v", flag.Arg(0), err)
	}
}

func dump(ctx context.Context, c *client.Client, cfg *hostcfg.Config) error {
	words, err := c.Dump(ctx)
	if err != nil {
		return err
	}
	var t0 time.Time
	if start != "" {
		if t0, err = time.Parse(time.RFC3339, start); err != nil {
			return fmt.Errorf("bad -start: %w", err)
		}
	}
	samples := make([]export.Sample, len(words))
	for i, w := range words {
		samples[i] = export.NewSample(i, w, t0, cfg.SampleInterval())
		if w == types.SensorFault {
			fmt.Printf("%d\t%s\tfault\n", i, samples[i].Time)
			continue
		}
		fmt.Printf("%d\t%s\t%.3f\n", i, samples[i].Time, *samples[i].Celsius)
	}
	glog.Infof("dumped %d samples", len(words))

	if cfg.MQTT.Broker == "" {
		return nil
	}
	pub, closeFn, err := export.Dial(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	if err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	defer closeFn()
	return export.New(pub, cfg.MQTT.Topic, cfg.MQTT.QoS).Export(samples)
}

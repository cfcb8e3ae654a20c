// Command symrange is the process composition root: it wires the
// registry, its ingestion collaborators, the HTTP/websocket transport
// and the registry-size reporter into one oklog/run group.
package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/symrange/symrange/internal/config"
	"github.com/symrange/symrange/internal/event"
	"github.com/symrange/symrange/internal/logging"
	"github.com/symrange/symrange/internal/registry"
	"github.com/symrange/symrange/internal/service/generator"
	"github.com/symrange/symrange/internal/service/ingest"
	"github.com/symrange/symrange/internal/service/interrupter"
	"github.com/symrange/symrange/internal/service/reporter"
	"github.com/symrange/symrange/internal/service/web"
	"github.com/symrange/symrange/pkg/app"
	"github.com/symrange/symrange/pkg/ebus"
	"github.com/symrange/symrange/pkg/utils"
)

func main() {
	cfg := utils.Must(config.Load(""))
	logger := logging.New(nil, cfg.Log.Level)

	eBus := ebus.New()
	reg := registry.New(cfg.Registry.ShardCount, cfg.Registry.Capacity)

	webServer := web.New(cfg.Server.Addr(), reg, logger)
	gen := generator.New(reg, eBus, 500*time.Millisecond, "BTCUSD", "ETHUSD")
	report := reporter.New(reg, eBus, time.Second)

	eBus.
		Subscribe(event.TickReceived{}, ebus.Typed(logging.EventListener[event.TickReceived](logger))).
		Subscribe(event.TickRejected{}, ebus.Typed(logging.EventListener[event.TickRejected](logger))).
		Subscribe(event.RegistrySnapshot{}, ebus.Typed(logging.EventListener[event.RegistrySnapshot](logger))).
		Subscribe(event.RegistrySnapshot{}, ebus.Typed(webServer.BroadcastSnapshot))

	a := app.NewApp().
		WithService(webServer).
		WithService(gen).
		WithService(report).
		WithService(interrupter.Interrupter{})

	if cfg.Kafka.Brokers != nil && len(cfg.Kafka.Brokers) > 0 {
		kafkaCl := utils.Must(sarama.NewClient(cfg.Kafka.Brokers, sarama.NewConfig()))
		defer kafkaCl.Close()

		consumer := utils.Must(ingest.NewConsumer(kafkaCl, cfg.Kafka.Topic, cfg.Kafka.Group, reg, eBus))
		a = a.WithService(consumer)
	}

	slog.SetDefault(logger)
	log.Fatal(a.Run(context.Background()))
}

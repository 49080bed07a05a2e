package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diamond-hands/internal/config"
	"diamond-hands/internal/db"
	"diamond-hands/internal/ledger"
	"diamond-hands/internal/replication"
	"diamond-hands/internal/room"

	"github.com/pterm/pterm"
	"go.uber.org/zap"
)

func main() {
	roomFlag := flag.String("room", "", "room code to follow, e.g. DIAMOND-4821")
	hostFlag := flag.String("host", "", "host identity (0x-prefixed address)")
	interval := flag.Duration("interval", 0, "poll interval (defaults to POLL_SECONDS)")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.LedgerBackend != config.LedgerPostgres {
		pterm.Error.Println("watching from another process needs LEDGER_BACKEND=postgres")
		os.Exit(2)
	}

	code := room.NormalizeRoomCode(*roomFlag)
	if !room.ValidRoomCode(code) {
		pterm.Error.Printfln("invalid room code %q", *roomFlag)
		os.Exit(2)
	}
	host, err := ledger.ParseIdentity(*hostFlag)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}
	if *interval <= 0 {
		*interval = cfg.PollInterval()
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	conn, err := db.Open(cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: cfg.ConnMaxLifetime(),
		ConnMaxIdleTime: cfg.ConnMaxIdleTime(),
	})
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	client := ledger.NewClient(ledger.NewPostgresStore(conn), ledger.WithLogger(logger.Named("ledger")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pterm.Info.Printfln("Watching %s hosted by %s", pterm.LightCyan(code), host)
	area, _ := pterm.DefaultArea.Start()
	defer func() { _ = area.Stop() }()
	area.Update(pterm.Sprintfln("Waiting for the host's first publish..."))

	updated := make(chan struct{}, 1)
	watcher := replication.NewWatcher(client, code, host,
		replication.WithInterval(*interval),
		replication.WithWatcherLogger(logger.Named("watcher")),
		replication.WithOnUpdate(func(ledger.RoomState) {
			select {
			case updated <- struct{}{}:
			default:
			}
		}),
	)
	if err := watcher.Start(ctx); err != nil {
		logger.Fatal("start watcher", zap.Error(err))
	}
	defer watcher.Stop()

	follow(ctx, watcher, updated, area.Update, time.Now)
}

type latestSource interface {
	Latest() (ledger.RoomState, bool)
}

// follow redraws from the watcher's latest applied record on every signal.
// Hook arguments are not used because hooks may run out of order.
func follow(ctx context.Context, source latestSource, updated <-chan struct{}, draw func(...any), now func() time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-updated:
			if record, ok := source.Latest(); ok {
				draw(renderRecord(record, now()))
			}
		}
	}
}

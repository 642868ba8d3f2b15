package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/advinv/internal/area"
	"github.com/l1jgo/advinv/internal/config"
	"github.com/l1jgo/advinv/internal/core/event"
	"github.com/l1jgo/advinv/internal/core/ident"
	"github.com/l1jgo/advinv/internal/data"
	"github.com/l1jgo/advinv/internal/filter"
	"github.com/l1jgo/advinv/internal/pane"
	"github.com/l1jgo/advinv/internal/persist"
	"github.com/l1jgo/advinv/internal/scenario"
	"github.com/l1jgo/advinv/internal/scripting"
	"github.com/l1jgo/advinv/internal/settings"
	"github.com/l1jgo/advinv/internal/transfer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Session ───────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/advinv.toml"
	if p := os.Getenv("ADVINV_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)
	go func() {
		select {
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	// 3. Data and scripting
	printSection("Data")
	catalog, err := data.LoadCatalog(cfg.Data.Catalog)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	printStat("item types", catalog.Count())

	luaEngine, err := scripting.NewEngine(cfg.Data.Scripts, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer luaEngine.Close()
	printOK("lua filter helpers loaded")

	sc, err := scenario.Load(cfg.Data.Scenario)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	inv := cfg.Inventory
	state, err := sc.Build(catalog, scenario.Limits{
		TileCapacity: inv.TileMaxVolume,
		TileLimit:    inv.TileMaxItems,
		CarryVolume:  inv.CarryVolume,
		WornLimit:    inv.WornMaxItems,
	})
	if err != nil {
		return fmt.Errorf("build scenario %q: %w", sc.Name, err)
	}
	printStat("vehicles", len(state.Vehicles))
	printStat("actions", len(sc.Actions))
	fmt.Println()

	// 4. Settings store
	printSection("Settings")
	store, closeStore, err := openSettings(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeStore()
	fmt.Println()

	// 5. Areas, panes, engine
	reg := ident.NewRegistry()
	reg.SetStart(ident.ID(state.MaxUID()))
	set := area.NewSet(state, reg)

	cache, err := filter.NewCache(inv.FilterCacheSize, luaEngine)
	if err != nil {
		return fmt.Errorf("filter cache: %w", err)
	}
	left := pane.New("left", area.Inventory, cache, inv.PageSize)
	right := pane.New("right", area.All, cache, inv.PageSize)

	prompt, err := scenario.NewPrompter(sc.Answers, log)
	if err != nil {
		return err
	}
	bus := event.NewBus()
	subscribeLog(bus, log)
	engine := transfer.NewEngine(set, prompt, bus, log)

	runner := scenario.NewRunner(set, engine, left, right, log)
	runner.VehicleOverride = sc.VehicleOverride

	blob, err := store.Load(ctx, inv.Profile)
	switch {
	case errors.Is(err, settings.ErrNotFound):
		blob = settings.NewBlob()
	case err != nil:
		return fmt.Errorf("load settings: %w", err)
	default:
		if err := runner.Load(blob); err != nil {
			log.Warn("saved pane settings partly dropped", zap.Error(err))
		}
	}
	// a scenario's own layout wins over what was saved
	if err := runner.Configure(sc.Left, sc.Right); err != nil {
		return fmt.Errorf("panes: %w", err)
	}

	// 6. Replay
	start := time.Now()
	log.Info("scenario started", zap.String("name", sc.Name), zap.String("actor", state.Actor.Name))
	if err := runner.Run(ctx, sc.Actions); err != nil {
		return fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	if d, q := prompt.Remaining(); d > 0 || q > 0 {
		log.Warn("unused scripted answers", zap.Int("destinations", d), zap.Int("quantities", q))
	}
	log.Info("scenario finished", zap.Duration("took", time.Since(start)), zap.Int("notes", len(prompt.Notes)))

	for _, p := range runner.Panes() {
		printPane(set, p)
	}

	runner.Save(blob)
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer saveCancel()
	if err := store.Save(saveCtx, inv.Profile, blob); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// openSettings connects the PostgreSQL store, or falls back to memory when
// no DSN is configured.
func openSettings(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (settings.Store, func(), error) {
	if cfg.DSN == "" {
		printOK("in-memory settings (no database configured)")
		return settings.NewMemoryStore(), func() {}, nil
	}
	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(dbCtx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	printOK("PostgreSQL connected")

	if err := persist.RunMigrations(dbCtx, db.Pool, log); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	return persist.NewSettingsRepo(db), db.Close, nil
}

func subscribeLog(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(e event.ItemsMoved) {
		log.Info("items moved",
			zap.String("item", e.Name),
			zap.String("from", e.From),
			zap.String("to", e.To),
			zap.Int("moved", e.Moved),
			zap.Int("requested", e.Requested))
	})
	event.Subscribe(bus, func(e event.TransferRejected) {
		log.Info("transfer rejected",
			zap.String("item", e.Name),
			zap.String("from", e.From),
			zap.String("to", e.To),
			zap.String("reason", e.Reason))
	})
	event.Subscribe(bus, func(e event.ContentsPoured) {
		log.Info("contents poured", zap.String("liquid", e.Name), zap.Int("units", e.Units))
	})
}

func printPane(set *area.Set, p *pane.Pane) {
	fmt.Println()
	title := fmt.Sprintf("%s: %s", p.Name, p.Target())
	if p.FilterText() != "" {
		title += fmt.Sprintf(" [%s]", p.FilterText())
	}
	printSection(title)
	for i, e := range p.PageEntries() {
		marker := " "
		if i+p.Page()*p.PageSize == p.Index {
			marker = ">"
		}
		fmt.Printf("  %s %s\n", marker, e.Text)
	}
	if p.Area != area.All {
		t := set.Get(p.Area).Totals(p.InVehicle)
		fmt.Printf("  \033[90m%d g, %d ml, %s\033[0m\n", t.Weight, t.Volume, p.RemainText())
	} else {
		fmt.Printf("  \033[90m%s\033[0m\n", p.RemainText())
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

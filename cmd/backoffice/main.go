package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/tour-backoffice/internal/allocation"
	"github.com/example/tour-backoffice/internal/application"
	"github.com/example/tour-backoffice/internal/assignment"
	"github.com/example/tour-backoffice/internal/config"
	"github.com/example/tour-backoffice/internal/expense"
	"github.com/example/tour-backoffice/internal/persistence"
	"github.com/example/tour-backoffice/internal/persistence/memory"
	"github.com/example/tour-backoffice/internal/persistence/sqlite"
	"github.com/example/tour-backoffice/internal/reconcile"
)

// snapshotDocument is the upstream export format loaded with -snapshot. The
// accommodation blocks, roster, plans, and sibling cost totals all come from
// external systems; this process never writes them back.
type snapshotDocument struct {
	Bookings       []persistence.BookingGroup          `json:"bookings"`
	Blocks         []allocation.AccommodationBlock     `json:"blocks"`
	Stays          map[string][]allocation.TouristStay `json:"stays"`
	Roster         []allocation.RosterEntry            `json:"roster"`
	Plans          map[string]reconcile.PlanRecord     `json:"plans"`
	CategoryTotals map[string]expense.CategoryTotals   `json:"category_totals"`
	GuideContracts map[string][]expense.GuideContract  `json:"guide_contracts"`
}

// statusRow flattens the reconciled status map for JSON output.
type statusRow struct {
	HotelID     string `json:"hotel_id"`
	BookingID   string `json:"booking_id"`
	CheckInDate string `json:"check_in_date"`
	Status      string `json:"status"`
}

// cityReport is the combined per-city view: resolved hotel grouping,
// reconciled confirmation statuses, and cost breakdowns.
type cityReport struct {
	Assignment assignment.CityAssignment `json:"assignment"`
	Statuses   []statusRow               `json:"statuses"`
	Costs      []allocation.Breakdown    `json:"costs"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	var (
		snapshotPath  = flag.String("snapshot", "", "path to an upstream snapshot export (JSON)")
		city          = flag.String("city", "", "print the assignment and cost report for this city")
		bookingID     = flag.String("booking", "", "print the expense record for this booking")
		allExpenses   = flag.Bool("expenses", false, "print expense records for every active booking")
		addHotelName  = flag.String("add-hotel", "", "register a hotel with this name in the directory")
		hotelCity     = flag.String("hotel-city", "", "city for -add-hotel")
		hotelCurrency = flag.String("hotel-currency", "", "local currency for -add-hotel (defaults to configured currency)")
	)
	flag.Parse()

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	hotelRepo := sqlite.NewHotelRepository(storage.Pool(), time.Now)
	overrideRepo := sqlite.NewOverrideRepository(storage.Pool())

	if *addHotelName != "" {
		currency := *hotelCurrency
		if currency == "" {
			currency = cfg.LocalCurrency
		}
		hotel := persistence.Hotel{
			ID:             uuid.NewString(),
			Name:           *addHotelName,
			City:           *hotelCity,
			LocalCurrency:  currency,
			LocalThreshold: cfg.LocalThreshold,
		}
		if err := hotelRepo.CreateHotel(ctx, hotel); err != nil {
			logger.Error("failed to register hotel", "error", err, "name", *addHotelName)
			os.Exit(1)
		}
		logger.Info("hotel registered", "id", hotel.ID, "name", hotel.Name, "city", hotel.City)
		return
	}

	store := memory.NewStore()
	hotels, err := hotelRepo.ListHotels(ctx)
	if err != nil {
		logger.Error("failed to list hotels", "error", err)
		os.Exit(1)
	}
	store.ReplaceHotels(hotels)

	if *snapshotPath != "" {
		if err := loadSnapshot(*snapshotPath, store); err != nil {
			logger.Error("failed to load snapshot", "error", err, "path", *snapshotPath)
			os.Exit(1)
		}
	}

	overrideStore := application.NewOverrideStore(overrideRepo, cfg.FlushDelay, nil, logger)
	loaded, err := overrideRepo.LoadOverrides(ctx)
	if err != nil {
		logger.Error("failed to load overrides", "error", err)
		os.Exit(1)
	}
	overrideStore.Reset(loaded)

	assignmentService := application.NewAssignmentService(store, hotelRepo, overrideStore, logger)
	accommodationService := application.NewAccommodationService(store, store, hotelRepo, logger)
	statusService := application.NewStatusService(assignmentService, store, overrideStore, logger)
	expenseService := application.NewExpenseService(store, accommodationService, store, logger)

	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := overrideStore.Flush(flushCtx); err != nil {
			logger.Error("failed to flush overrides", "error", err)
		}
	}()

	switch {
	case *city != "":
		report, err := buildCityReport(ctx, *city, assignmentService, statusService, accommodationService)
		if err != nil {
			logger.Error("failed to build city report", "error", err, "city", *city)
			os.Exit(1)
		}
		printJSON(logger, report)
	case *bookingID != "":
		record, err := expenseService.Aggregate(ctx, *bookingID)
		if err != nil {
			logger.Error("failed to aggregate booking", "error", err, "booking", *bookingID)
			os.Exit(1)
		}
		printJSON(logger, record)
	case *allExpenses:
		records, err := expenseService.AggregateAll(ctx)
		if err != nil {
			logger.Error("failed to aggregate expenses", "error", err)
			os.Exit(1)
		}
		printJSON(logger, records)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func buildCityReport(ctx context.Context, city string, assignments *application.AssignmentService, statuses *application.StatusService, accommodations *application.AccommodationService) (cityReport, error) {
	resolved, err := assignments.ResolveCityHotels(ctx, city)
	if err != nil {
		return cityReport{}, err
	}

	merged, err := statuses.ReconcileStatuses(ctx, city)
	if err != nil {
		return cityReport{}, err
	}
	rows := make([]statusRow, 0, len(merged))
	for key, status := range merged {
		rows = append(rows, statusRow{
			HotelID:     key.HotelID,
			BookingID:   key.BookingID,
			CheckInDate: key.CheckInDate,
			Status:      string(status),
		})
	}

	costs, err := accommodations.CityCostReport(ctx, city)
	if err != nil {
		return cityReport{}, err
	}

	return cityReport{Assignment: resolved, Statuses: rows, Costs: costs}, nil
}

func loadSnapshot(path string, store *memory.Store) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}

	store.ReplaceBookings(doc.Bookings)
	store.ReplaceBlocks(doc.Blocks)
	for blockID, stays := range doc.Stays {
		store.ReplaceStays(blockID, stays)
	}
	store.ReplaceRoster(doc.Roster)
	store.ReplacePlans(doc.Plans)
	store.ReplaceCategoryTotals(doc.CategoryTotals)
	store.ReplaceGuideContracts(doc.GuideContracts)
	return nil
}

func printJSON(logger *slog.Logger, value any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		logger.Error("failed to encode output", "error", err)
		os.Exit(1)
	}
}

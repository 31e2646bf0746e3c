package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"smart-reader-be/internal/config"
	"smart-reader-be/internal/repository/specification"
	"smart-reader-be/internal/repository/unitofwork"
	"smart-reader-be/pkg/database"
	"smart-reader-be/pkg/events"
	pktNats "smart-reader-be/pkg/nats"
	"smart-reader-be/pkg/overlay"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

type pageTally struct {
	path, highlight, text int
}

func main() {
	refFlag := flag.String("ref", "", "reference id to inspect")
	follow := flag.Bool("follow", false, "after printing, stream annotation events from NATS")
	flag.Parse()

	cfg := config.Load()

	if *refFlag != "" {
		if err := inspect(cfg, *refFlag); err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
	}

	if *follow {
		if err := followEvents(cfg, *refFlag); err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
	}

	if *refFlag == "" && !*follow {
		flag.Usage()
		os.Exit(2)
	}
}

func inspect(cfg *config.Config, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid reference id: %w", err)
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
	ref, err := uow.ReferenceRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if ref == nil {
		return fmt.Errorf("reference %s not found", id)
	}

	color.Cyan("Reference: %s", ref.Title)
	fmt.Printf("Type: %s   PDF: %v (%d pages, %d bytes)\n", ref.Type, ref.HasPdf, ref.PdfPages, ref.PdfSize)

	tallies := map[int]*pageTally{}
	for _, a := range ref.Annotations {
		t, ok := tallies[a.Page]
		if !ok {
			t = &pageTally{}
			tallies[a.Page] = t
		}
		switch a.Kind {
		case overlay.KindPath:
			t.path++
		case overlay.KindHighlight:
			t.highlight++
		case overlay.KindText:
			t.text++
		}
	}

	if len(tallies) == 0 {
		color.Yellow("No annotations.")
		return nil
	}

	pages := make([]int, 0, len(tallies))
	for p := range tallies {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	pathColor := color.New(color.FgRed)
	highlightColor := color.New(color.FgYellow)
	textColor := color.New(color.FgGreen)
	for _, p := range pages {
		t := tallies[p]
		fmt.Printf("page %4d  ", p)
		pathColor.Printf("path %3d  ", t.path)
		highlightColor.Printf("highlight %3d  ", t.highlight)
		textColor.Printf("text %3d\n", t.text)
	}
	color.Green("Total: %d annotations on %d pages", len(ref.Annotations), len(pages))
	return nil
}

func followEvents(cfg *config.Config, referenceID string) error {
	if cfg.App.NatsURL == "" {
		return fmt.Errorf("NATS_URL is not set")
	}
	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := func(_ context.Context, event events.Event) error {
		if !strings.HasPrefix(event.EventType(), "ANNOTATION") {
			return nil
		}
		payload := event.Payload()
		if referenceID != "" && payload["reference_id"] != referenceID {
			return nil
		}
		line := fmt.Sprintf("%s %-20s ref=%v page=%v count=%v",
			event.Timestamp().Format("15:04:05"), event.EventType(),
			payload["reference_id"], payload["page"], payload["count"])
		switch event.EventType() {
		case "ANNOTATION_CREATED":
			color.Green("%s", line)
		case "ANNOTATION_UNDONE":
			color.Yellow("%s", line)
		default:
			color.Red("%s", line)
		}
		return nil
	}

	if err := sub.Subscribe(ctx, pktNats.Subject(">"), "", handler); err != nil {
		return err
	}
	color.Cyan("Following annotation events, Ctrl+C to stop")
	<-ctx.Done()
	log.Println("stopped")
	return nil
}

package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"strings"

	"filler/internal/analytics"
	"filler/internal/game"
	"filler/internal/protocol"
	"filler/internal/record"
	"filler/internal/storage"
)

func main() {
	// stdout belongs to the game engine; logs go to stderr or a file.
	if path := os.Getenv("FILLER_LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	rec := &record.Recorder{}
	if dsn := os.Getenv("POSTGRES_URL"); dsn != "" {
		pg, err := storage.NewPostgresStore(context.Background(), dsn)
		if err != nil {
			log.Printf("postgres disabled: %v", err)
		} else {
			if err := pg.EnsureTables(context.Background()); err != nil {
				log.Printf("postgres ensure tables failed: %v", err)
			}
			defer pg.Close()
			rec.Store = pg
		}
	} else if path := os.Getenv("FILLER_DB_PATH"); path != "" {
		lite, err := storage.NewSQLiteStore(path)
		if err != nil {
			log.Printf("turn archive disabled: %v", err)
		} else {
			defer lite.Close()
			rec.Store = lite
		}
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		topic := getEnv("KAFKA_TOPIC", "filler-events")
		rec.Analytics = analytics.NewProducer(strings.Split(brokers, ","), topic)
		defer rec.Analytics.Close()
	}

	if err := run(os.Stdin, os.Stdout, rec); err != nil {
		log.Printf("filler: %v", err)
		os.Exit(1)
	}
}

// run plays turns from in until the engine closes the stream.
func run(in io.Reader, out io.Writer, rec *record.Recorder) error {
	ctx := context.Background()
	reader := protocol.NewReader(in)
	w := bufio.NewWriter(out)

	player, err := reader.ReadPlayer()
	if err != nil {
		return err
	}
	manager := game.NewManager(0, func(s game.Session) { rec.Finish(ctx, s) })
	sess := manager.Start(player)
	log.Printf("session %s playing as %s", sess.ID, player)
	defer func() {
		if s, err := manager.Finish(sess.ID); err == nil {
			log.Printf("session %s done: %d turns, %d passes", s.ID, s.Turns, s.Passes)
		}
	}()

	for {
		turn, err := reader.ReadTurn()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		d, s, err := manager.Play(sess.ID, turn.Grid, turn.Piece)
		if err != nil {
			return err
		}
		if err := protocol.WriteMove(w, d.Placement, !d.Pass); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if d.Pass {
			log.Printf("turn %d: no legal placement, passing", s.Turns)
		} else {
			log.Printf("turn %d: placed at row=%d col=%d (%d candidates, %s)",
				s.Turns, d.Placement.Row, d.Placement.Col, d.Candidates, d.Elapsed)
		}
		rec.Turn(ctx, s, d)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

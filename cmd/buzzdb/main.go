package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	buzzdb "github.com/eltonsong/BuzzDB-Project"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dbPath := flag.String("db", buzzdb.DefaultDBFileName, "path to the database file")
	inputPath := flag.String("input", "", "file of whitespace-separated \"key value\" pairs to insert in batch; if empty, reads none")
	poolSize := flag.Int("pool-size", buzzdb.MaxPagesInMemory, "number of pages kept resident in the buffer pool")
	loLo := flag.Int("lo", 0, "lower bound (inclusive) for the select-group-by-sum report")
	hiHi := flag.Int("hi", 0, "upper bound (inclusive) for the select-group-by-sum report")
	repl := flag.Bool("repl", false, "start an interactive session instead of exiting after batch insert")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger := setupLogger(*logLevel)
	logger.Info().Str("db", *dbPath).Int("pool_size", *poolSize).Msg("starting buzzdb")

	engine, err := buzzdb.Open(*dbPath, *poolSize, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close database")
		}
	}()

	if *inputPath != "" {
		n, err := insertFromFile(engine, *inputPath, logger)
		if err != nil {
			return fmt.Errorf("failed to insert from %s: %w", *inputPath, err)
		}
		logger.Info().Int("rows", n).Msg("batch insert complete")
	}

	if err := engine.ScanTableToBuildIndex(); err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	values, dump := engine.SelectGroupBySum(int32(*loLo), int32(*hiHi))
	fmt.Print(dump)
	fmt.Printf("sums for key in [%d, %d]: %v\n", *loLo, *hiHi, values)

	if *repl {
		return runREPL(engine, logger)
	}
	return nil
}

func insertFromFile(engine *buzzdb.Engine, path string, logger zerolog.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)

	n := 0
	for {
		keyTok, ok := nextToken(sc)
		if !ok {
			break
		}
		valTok, ok := nextToken(sc)
		if !ok {
			return n, fmt.Errorf("dangling key %q with no paired value", keyTok)
		}
		key, err := strconv.Atoi(keyTok)
		if err != nil {
			return n, fmt.Errorf("parse key %q: %w", keyTok, err)
		}
		value, err := strconv.Atoi(valTok)
		if err != nil {
			return n, fmt.Errorf("parse value %q: %w", valTok, err)
		}
		if err := engine.Insert(int32(key), int32(value)); err != nil {
			return n, fmt.Errorf("insert(%d, %d): %w", key, value, err)
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("scan: %w", err)
	}
	logger.Debug().Int("count", n).Msg("insertFromFile: done")
	return n, nil
}

func nextToken(sc *bufio.Scanner) (string, bool) {
	if !sc.Scan() {
		return "", false
	}
	return sc.Text(), true
}

// runREPL is a supplemented, interactive command loop over the engine:
// "insert key value", "scan", "range lo hi", "pages", and "exit"/"quit".
// It is not part of the distilled specification; it exists so the
// engine can be exercised without preparing an input file.
func runREPL(engine *buzzdb.Engine, logger zerolog.Logger) error {
	rl, err := readline.New("buzzdb> ")
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("buzzdb interactive session. Commands: insert <key> <value>, scan, range <lo> <hi>, pages, exit")

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				break
			}
			return fmt.Errorf("readline: %w", err)
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "exit", "quit":
			return nil
		case "insert":
			if len(fields) != 3 {
				fmt.Println("usage: insert <key> <value>")
				continue
			}
			key, err1 := strconv.Atoi(fields[1])
			value, err2 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil {
				fmt.Println("key and value must be integers")
				continue
			}
			if err := engine.Insert(int32(key), int32(value)); err != nil {
				fmt.Printf("insert failed: %v\n", err)
				continue
			}
			fmt.Println("ok")
		case "scan":
			rows, err := engine.ExecuteQuery(nil)
			if err != nil {
				fmt.Printf("scan failed: %v\n", err)
				continue
			}
			for _, row := range rows {
				fmt.Println(formatRow(row))
			}
			fmt.Printf("%d rows\n", len(rows))
		case "range":
			if len(fields) != 3 {
				fmt.Println("usage: range <lo> <hi>")
				continue
			}
			lo, err1 := strconv.Atoi(fields[1])
			hi, err2 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil {
				fmt.Println("lo and hi must be integers")
				continue
			}
			if err := engine.ScanTableToBuildIndex(); err != nil {
				fmt.Printf("build index failed: %v\n", err)
				continue
			}
			values, dump := engine.SelectGroupBySum(int32(lo), int32(hi))
			fmt.Print(dump)
			fmt.Printf("sums: %v\n", values)
		case "pages":
			fmt.Printf("%d pages\n", engine.NumPages())
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}

	logger.Debug().Msg("repl: session ended")
	return nil
}

func formatRow(row []buzzdb.Field) string {
	var b strings.Builder
	for i, f := range row {
		if i > 0 {
			b.WriteString(" | ")
		}
		switch f.Type {
		case buzzdb.FieldTypeInt:
			fmt.Fprintf(&b, "%d", f.AsInt32())
		case buzzdb.FieldTypeFloat:
			fmt.Fprintf(&b, "%g", f.AsFloat32())
		case buzzdb.FieldTypeString:
			b.WriteString(f.AsString())
		}
	}
	return b.String()
}

func setupLogger(level string) zerolog.Logger {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).
		Level(logLevel).
		With().
		Timestamp().
		Logger()
}

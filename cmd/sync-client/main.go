package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"stagehub/internal/logging"
	synchub "stagehub/internal/sync"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9091", "TCP event feed address")
	raw := flag.Bool("raw", false, "print events as received")
	flag.Parse()

	logger := logging.New(logging.Config{Format: "console"})
	for {
		if err := run(*addr, *raw, os.Stdout, logger); err != nil {
			logger.Warn().Err(err).Msg("disconnected")
		}
		time.Sleep(time.Second) // reconnect
	}
}

func run(addr string, raw bool, out io.Writer, logger zerolog.Logger) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	logger.Info().Str("addr", addr).Msg("connected")
	return tail(conn, raw, out)
}

// tail prints one line per event until r is exhausted.
func tail(r io.Reader, raw bool, out io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Bytes()
		if raw {
			fmt.Fprintln(out, string(line))
			continue
		}
		fmt.Fprintln(out, describe(line))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func describe(line []byte) string {
	var ev synchub.SnapshotEvent
	if err := json.Unmarshal(line, &ev); err != nil || ev.Type != synchub.EventSnapshotPublished {
		return string(line)
	}
	s := fmt.Sprintf("[%s] cycle %s (%s): %d performances", ev.ComputedAt, ev.CycleID, ev.Mode, ev.Total)
	names := make([]string, 0, len(ev.Stats))
	for name := range ev.Stats {
		if name != "total" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		s += fmt.Sprintf(" %s=%d", name, ev.Stats[name])
	}
	return s
}

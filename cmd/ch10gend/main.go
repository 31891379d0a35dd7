// Command ch10gend is the batch daemon: a long-lived HTTP process
// wrapping the run ledger and the library's Generate entry point, for
// fleet/batch generation workflows where a caller drives many runs
// over HTTP instead of invoking the CLI once per file.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/genlog"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/server"
)

func main() {
	listenAddr := flag.String("listen", ":8080", "HTTP listen address")
	ledgerPath := flag.String("ledger", "ch10gend.db", "run ledger database path")
	logFile := flag.String("log-file", "", "rotate log output to this file instead of stderr")
	readTimeout := flag.Duration("read-timeout", 60*time.Second, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", 60*time.Second, "HTTP write timeout")
	flag.Parse()

	if *logFile != "" {
		genlog.UseRotatingFile(*logFile, 25, 5, 7)
	}

	opts := server.DefaultOptions()
	opts.LedgerPath = *ledgerPath
	opts.ReadTimeout = *readTimeout
	opts.WriteTimeout = *writeTimeout

	srv, err := server.NewServer(opts)
	if err != nil {
		genlog.Fatalf("server init: %v", err)
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:         *listenAddr,
		Handler:      server.NewRouter(srv),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		genlog.Logf("ch10gend listening on %s, ledger=%s", *listenAddr, *ledgerPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			genlog.Fatalf("listen: %v", err)
		}
	}()

	<-shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
	genlog.Logf("ch10gend stopped")
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/facebookgo/flagenv"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uvensys/pchan"
	"github.com/uvensys/pchan/internal"
	"github.com/uvensys/pchan/lib"
	"github.com/uvensys/pchan/lib/board"
	"github.com/uvensys/pchan/lib/store"
	_ "github.com/uvensys/pchan/lib/store/all"
)

var (
	bind               = flag.String("bind", ":3000", "network address to bind HTTP to")
	bindNetwork        = flag.String("bind-network", "tcp", "network family to bind HTTP to, e.g. unix, tcp")
	boards             = flag.String("boards", pchan.DefaultBoard, "comma-separated list of boards that accept posts")
	captchaTTL         = flag.Duration("captcha-ttl", pchan.DefaultCaptchaTTL, "how long an unsolved captcha stays valid")
	dbPath             = flag.String("db-path", "data.bin", "path to the sqlite board database")
	healthcheck        = flag.Bool("healthcheck", false, "run a health check against pchan")
	maxUploadBytes     = flag.Int64("max-upload-bytes", pchan.DefaultMaxUploadBytes, "upload size cap for post images")
	metricsBind        = flag.String("metrics-bind", ":9090", "network address to bind metrics to")
	metricsBindNetwork = flag.String("metrics-bind-network", "tcp", "network family for the metrics server to bind to")
	slogLevel          = flag.String("slog-level", "INFO", "logging level (see https://pkg.go.dev/log/slog#hdr-Levels)")
	storeBackend       = flag.String("store-backend", "memory", "challenge store backend to use")
	storeConfig        = flag.String("store-config", "{}", "JSON configuration for the challenge store backend")
	uploadDir          = flag.String("upload-dir", "uploads", "directory to keep uploaded images in")
	versionFlag        = flag.Bool("version", false, "print pchan version")
)

func doHealthCheck() error {
	resp, err := http.Get("http://localhost" + *metricsBind + "/metrics")
	if err != nil {
		return fmt.Errorf("failed to fetch metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

func setupListener(network string, address string) (net.Listener, string) {
	formattedAddress := ""

	switch network {
	case "unix":
		formattedAddress = "unix:" + address
	case "tcp":
		if strings.HasPrefix(address, ":") { // assume it's just a port e.g. :3000
			formattedAddress = "http://localhost" + address
		} else {
			formattedAddress = "http://" + address
		}
	default:
		formattedAddress = fmt.Sprintf(`(%s) %s`, network, address)
	}

	listener, err := net.Listen(network, address)
	if err != nil {
		log.Fatal(fmt.Errorf("failed to bind to %s: %w", formattedAddress, err))
	}

	return listener, formattedAddress
}

func buildStore(ctx context.Context) (store.Interface, error) {
	factory, ok := store.Get(*storeBackend)
	if !ok {
		return nil, fmt.Errorf("unknown store backend %q, have: %s", *storeBackend, strings.Join(store.Methods(), ", "))
	}

	return factory.Build(ctx, json.RawMessage(*storeConfig))
}

func main() {
	flagenv.Parse()
	flag.Parse()

	if *versionFlag {
		fmt.Println("pchan", pchan.Version)
		return
	}

	internal.InitSlog(*slogLevel)

	if *healthcheck {
		if err := doHealthCheck(); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	challengeStore, err := buildStore(ctx)
	if err != nil {
		log.Fatalf("can't build challenge store: %v", err)
	}

	db, err := board.Open(*dbPath)
	if err != nil {
		log.Fatalf("can't open board database: %v", err)
	}
	defer db.Close()

	var boardList []string
	for b := range strings.SplitSeq(*boards, ",") {
		if b = strings.TrimSpace(b); b != "" {
			boardList = append(boardList, b)
		}
	}

	s, err := lib.New(lib.Options{
		Boards:         boardList,
		Store:          challengeStore,
		CaptchaTTL:     *captchaTTL,
		DB:             db,
		UploadDir:      *uploadDir,
		MaxUploadBytes: *maxUploadBytes,
	})
	if err != nil {
		log.Fatalf("can't construct lib.Server: %v", err)
	}

	wg := new(sync.WaitGroup)

	if *metricsBind != "" {
		wg.Add(1)
		go metricsServer(ctx, wg.Done)
	}

	srv := http.Server{Handler: s, ErrorLog: internal.GetFilteredHTTPLogger()}
	listener, listenerUrl := setupListener(*bindNetwork, *bind)
	slog.Info(
		"listening",
		"url", listenerUrl,
		"boards", boardList,
		"captcha-ttl", *captchaTTL,
		"store-backend", *storeBackend,
		"db-path", *dbPath,
		"upload-dir", *uploadDir,
		"version", pchan.Version,
	)

	go func() {
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(c); err != nil {
			log.Printf("cannot shut down: %v", err)
		}
	}()

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	wg.Wait()
}

func metricsServer(ctx context.Context, done func()) {
	defer done()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := http.Server{Handler: mux, ErrorLog: internal.GetFilteredHTTPLogger()}
	listener, metricsUrl := setupListener(*metricsBindNetwork, *metricsBind)
	slog.Debug("listening for metrics", "url", metricsUrl)

	go func() {
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(c); err != nil {
			log.Printf("cannot shut down: %v", err)
		}
	}()

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

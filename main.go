package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdnet "net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/spf13/pflag"

	"SyncBoard/internal/config"
	"SyncBoard/internal/engine"
	boardnet "SyncBoard/internal/net"
	"SyncBoard/internal/protocol"
	"SyncBoard/internal/session"
	"SyncBoard/internal/store"
	"SyncBoard/internal/ui"
)

// browseJoin is the --join value that discovers a host over mDNS.
const browseJoin = "mdns"

type options struct {
	configPath string
	join       string
	record     bool
	noMDNS     bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "localboard:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, opts, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	codec, err := protocol.CodecByName(cfg.Network.Codec)
	if err != nil {
		return err
	}
	eng := engine.New(engine.Options{
		Logger:       logger,
		Codec:        codec,
		HistoryDepth: cfg.Canvas.HistoryDepth,
		Style:        cfg.Style(),
		Viewport:     cfg.Viewport(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o700); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	db, err := store.Open(ctx, cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if keys, err := db.Keys(ctx); err == nil {
		logger.Debug("session store opened", "path", cfg.Storage.Path, "sessions", len(keys))
	}

	addr, shareLink, shutdown, err := resolveRelay(ctx, cfg, opts, logger)
	if err != nil {
		return err
	}
	defer shutdown()

	if opts.record {
		rec := session.NewRecorder(eng, db, cfg.Storage.SessionKey, cfg.Storage.AutosaveInterval, logger)
		if err := rec.Restore(ctx); err != nil {
			return err
		}
		go connect(ctx, cfg, addr, logger, rec)
		logger.Info("recording session", "relay", addr, "key", cfg.Storage.SessionKey, "share", shareLink)
		rec.Run(ctx)
		return nil
	}

	app := ui.New(ui.Options{
		Engine:     eng,
		Store:      db,
		SessionKey: cfg.Storage.SessionKey,
		ShareLink:  shareLink,
		Autosave:   cfg.Storage.AutosaveInterval,
		Logger:     logger,
	})
	go connect(ctx, cfg, addr, logger, app)
	app.Run(ctx)
	return nil
}

func parseFlags(args []string) (*config.Config, options, error) {
	var opts options
	flags := pflag.NewFlagSet("localboard", pflag.ContinueOnError)
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.join, "join", "", "join the board at a localboard:// link or host:port instead of hosting (bare --join browses the LAN)")
	flags.Lookup("join").NoOptDefVal = browseJoin
	flags.BoolVar(&opts.record, "record", false, "run headless, recording the session to the store")
	flags.BoolVar(&opts.noMDNS, "no-mdns", false, "do not advertise or browse over mDNS")
	port := flags.Int("port", 0, "relay port when hosting")
	transport := flags.String("transport", "", "message transport: ws or webrtc")
	codec := flags.String("codec", "", "wire codec: json or cbor")
	storePath := flags.String("store", "", "session database file")
	sessionKey := flags.String("session-key", "", "key the canvas is saved under")
	logLevel := flags.String("log-level", "", "debug, info, warn or error")

	if err := flags.Parse(args); err != nil {
		return nil, opts, err
	}

	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.LoadFile(opts.configPath)
		if err != nil {
			return nil, opts, err
		}
		cfg = loaded
	}

	if flags.Changed("port") {
		cfg.Network.Port = *port
	}
	if flags.Changed("transport") {
		cfg.Network.Transport = *transport
	}
	if flags.Changed("codec") {
		cfg.Network.Codec = *codec
	}
	if flags.Changed("store") {
		cfg.Storage.Path = *storePath
	}
	if flags.Changed("session-key") {
		cfg.Storage.SessionKey = *sessionKey
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if opts.noMDNS {
		cfg.Network.MDNS = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, opts, err
	}
	return cfg, opts, nil
}

// resolveRelay finds the relay to connect to. Without --join this process
// hosts the relay itself and returns its share link.
func resolveRelay(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) (addr, shareLink string, shutdown func(), err error) {
	switch opts.join {
	case "":
		return host(ctx, cfg, logger)
	case browseJoin:
		if !cfg.Network.MDNS {
			return "", "", nil, errors.New("--join without an address needs mDNS")
		}
		logger.Info("browsing for a board on the LAN", "service", boardnet.ServiceType)
		found, err := boardnet.Browse(boardnet.DefaultBrowseTimeout)
		if err != nil {
			logger.Warn("mDNS browse failed", "error", err)
		}
		if len(found) == 0 {
			return "", "", nil, errors.New("no board found on the LAN")
		}
		logger.Info("found board", "addr", found[0], "candidates", len(found))
		return found[0], "", func() {}, nil
	default:
		addr, err := boardnet.ParseShareLink(opts.join)
		if err != nil {
			return "", "", nil, err
		}
		return addr, "", func() {}, nil
	}
}

func host(ctx context.Context, cfg *config.Config, logger *slog.Logger) (string, string, func(), error) {
	port := cfg.Network.Port
	ln, err := stdnet.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to start relay: %w", err)
	}

	hub := boardnet.NewHub(logger.With("component", "relay"), 0)
	mux := http.NewServeMux()
	mux.Handle(boardnet.RelayPath, hub)
	srv := &http.Server{Handler: mux, BaseContext: func(stdnet.Listener) context.Context { return ctx }}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("relay stopped", "error", err)
		}
	}()
	logger.Info("hosting relay", "port", port)

	var advert *mdns.Server
	if cfg.Network.MDNS {
		advert, err = boardnet.Advertise(port)
		if err != nil {
			logger.Warn("mDNS advertise failed", "error", err)
		}
	}

	shareLink := boardnet.ShareLink(boardnet.OutgoingIP(), port)
	shutdown := func() {
		if advert != nil {
			advert.Shutdown()
		}
		hub.Close()
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(closeCtx)
	}
	return fmt.Sprintf("127.0.0.1:%d", port), shareLink, shutdown, nil
}

// participant is what a connection feeds: the desktop app or the headless
// recorder.
type participant interface {
	Attach(t engine.Transport)
	Inbound(payload []byte, from string)
	PeerJoined(id string)
	PeerLeft(id string)
}

func connect(ctx context.Context, cfg *config.Config, addr string, logger *slog.Logger, p participant) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := boardnet.Dial(dialCtx, boardnet.RelayURL(addr), logger)
	cancel()
	if err != nil {
		logger.Error("connection failed", "relay", addr, "error", err)
		if s, ok := p.(interface{ SetStatus(string) }); ok {
			s.SetStatus("Connection failed")
		}
		return
	}
	defer client.Close()
	logger.Info("connected to relay", "relay", addr, "participant", client.ID())

	events := boardnet.Events{
		OnData:  p.Inbound,
		OnJoin:  p.PeerJoined,
		OnLeave: p.PeerLeft,
	}
	var transport engine.Transport = client
	if cfg.Network.Transport == config.TransportWebRTC {
		mesh := boardnet.NewMesh(client.ID(), client, cfg.Network.ICEServers, logger, p.Inbound)
		defer mesh.Close()
		transport = mesh
		events.OnData = nil
		events.OnJoin = func(id string) {
			mesh.PeerJoined(id)
			p.PeerJoined(id)
		}
		events.OnLeave = func(id string) {
			mesh.PeerLeft(id)
			p.PeerLeft(id)
		}
		events.OnSignal = mesh.HandleSignal
	}
	p.Attach(transport)

	if err := client.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("disconnected from relay", "relay", addr, "error", err)
		if s, ok := p.(interface{ SetStatus(string) }); ok {
			s.SetStatus("Disconnected from host")
		}
	}
}

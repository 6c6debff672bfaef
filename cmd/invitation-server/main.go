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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/config"
	"wedding-invitation/internal/guestbook"
	"wedding-invitation/internal/handler"
	"wedding-invitation/internal/invitation"
	"wedding-invitation/internal/metrics"
	"wedding-invitation/internal/objectstore"
	"wedding-invitation/internal/session"
	"wedding-invitation/internal/storage"
	"wedding-invitation/internal/whatsapp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	log := newLogger(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("goodbye")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := storage.NewStorage(ctx, cfg.DatabasePath, log.With().Str("component", "storage").Logger())
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	objects, mediaDir, err := newObjectStore(ctx, cfg, log.With().Str("component", "objectstore").Logger())
	if err != nil {
		return err
	}

	m := metrics.New()
	sessions := session.NewProvider(store, cfg.JWTSecret, cfg.SessionTTL,
		log.With().Str("component", "session").Logger())
	invitations := invitation.NewService(store, objects, m,
		log.With().Str("component", "invitation").Logger(),
		invitation.WithMaxUploadBytes(cfg.MaxUploadBytes))
	gb := guestbook.NewService(store, m, log.With().Str("component", "guestbook").Logger())

	var messenger handler.Messenger
	var wa *whatsapp.Service
	if cfg.WhatsAppEnabled {
		wa, err = whatsapp.NewService(ctx, whatsapp.Config{
			DataDir:            cfg.WhatsAppDataDir,
			DefaultCountryCode: cfg.DefaultCountryCode,
		}, m, log.With().Str("component", "whatsapp").Logger())
		if err != nil {
			return fmt.Errorf("failed to initialize WhatsApp: %w", err)
		}
		messenger = wa
	}

	rsvp := handler.NewRSVPHandler(messenger, invitations, gb, handler.RSVPConfig{
		PublicBaseURL:      cfg.PublicBaseURL,
		DefaultCountryCode: cfg.DefaultCountryCode,
	}, log.With().Str("component", "rsvp").Logger())

	if wa != nil {
		wa.SetMessageHandler(rsvp.HandleMessage)
		if err := wa.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to WhatsApp: %w", err)
		}
		defer wa.Disconnect()
	}

	srv := handler.NewServer(handler.Deps{
		Sessions:       sessions,
		Invitations:    invitations,
		Guestbook:      gb,
		RSVP:           rsvp,
		Metrics:        m,
		Store:          store,
		PublicBaseURL:  cfg.PublicBaseURL,
		MediaDir:       mediaDir,
		SecureCookies:  strings.HasPrefix(cfg.PublicBaseURL, "https://"),
		MaxUploadBytes: cfg.MaxUploadBytes,
		Log:            log.With().Str("component", "http").Logger(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.HTTPAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newObjectStore returns the photo store and, for the disk backend, the
// directory to serve under /media.
func newObjectStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (objectstore.Store, string, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		s3, err := objectstore.NewS3Store(ctx, objectstore.S3Config{
			Endpoint:  cfg.StorageEndpoint,
			Region:    cfg.StorageRegion,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			PublicURL: cfg.StoragePublicURL,
		}, log)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		return s3, "", nil
	default:
		disk, err := objectstore.NewDiskStore(cfg.MediaDir, cfg.PublicBaseURL, log)
		if err != nil {
			return nil, "", err
		}
		return disk, disk.Root(), nil
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	log := zerolog.New(os.Stdout)
	if cfg.ConsoleLogs() {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return log.Level(level).With().Timestamp().Logger()
}

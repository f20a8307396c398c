// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"scrapmate/internal/ai"
	"scrapmate/internal/cache"
	"scrapmate/internal/config"
	"scrapmate/internal/geocode"
	httptransport "scrapmate/internal/http"
	"scrapmate/internal/infra"
	"scrapmate/internal/modules/directory"
	"scrapmate/internal/modules/discovery"
	"scrapmate/internal/modules/notify"
	"scrapmate/internal/modules/order"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("SCRAPMATE_FIREBASE_PROJECT_ID is required")
	}
	firebaseApp, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, firebaseApp)
	if err != nil {
		log.Fatalf("firebase auth: %v", err)
	}
	messagingClient, err := infra.NewMessaging(ctx, firebaseApp)
	if err != nil {
		log.Fatalf("firebase messaging: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	directoryStore := directory.NewPostgresStore(dbPool)
	directorySvc := directory.NewService(directoryStore)

	discoveryStore := discovery.NewStore(redisClient)
	discoverySvc := discovery.NewService(discoveryStore, directoryStore)
	if err := syncShopIndex(ctx, directoryStore, discoveryStore); err != nil {
		log.Printf("shop index sync: %v", err)
	}

	notifySvc := notify.NewService(notify.NewFCMSender(messagingClient), directorySvc)

	invalidator := cache.NewInvalidator(redisClient)

	var geocoder order.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := geocode.NewService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		geocoder = g
	}

	orderStore := order.NewPostgresStore(dbPool)
	orderSvc := order.NewService(orderStore, discoverySvc, directorySvc, notifySvc, invalidator, geocoder, order.Config{
		RadiusKm:   cfg.Dispatch.RadiusKm,
		MaxVendors: cfg.Dispatch.MaxVendors,
	})

	var quoteProvider ai.QuoteProvider
	if cfg.AI.GeminiKey != "" {
		gemini, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Fatalf("gemini init: %v", err)
		}
		defer gemini.Close()
		quoteProvider = gemini
	}

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Order:    orderSvc,
		Quote:    quoteProvider,
		Verifier: verifier,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Printf("listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// syncShopIndex rebuilds the Redis geo index from the registry at startup so
// dispatch sees every active shop even after an index flush.
func syncShopIndex(ctx context.Context, reg *directory.PostgresStore, idx *discovery.Store) error {
	for _, class := range []directory.Class{directory.ClassShop, directory.ClassMobile} {
		vendors, err := reg.ActiveVendors(ctx, class)
		if err != nil {
			return err
		}
		for _, v := range vendors {
			shops, err := reg.ShopsByOwner(ctx, v.ID)
			if err != nil {
				return err
			}
			for _, sh := range shops {
				if !sh.Active {
					if err := idx.RemoveShop(ctx, sh.ID, sh.Class); err != nil {
						return err
					}
					continue
				}
				if err := idx.IndexShop(ctx, sh.ID, sh.Class, sh.Location); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

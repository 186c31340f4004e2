package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/girasol-pay/deposit-listener/internal/chains"
	"github.com/girasol-pay/deposit-listener/internal/config"
	"github.com/girasol-pay/deposit-listener/internal/gateway"
	"github.com/girasol-pay/deposit-listener/internal/lirium"
	"github.com/girasol-pay/deposit-listener/internal/repository"
	"github.com/girasol-pay/deposit-listener/internal/safeops"
	"github.com/girasol-pay/deposit-listener/internal/server"
	"github.com/girasol-pay/deposit-listener/internal/services"
	"github.com/girasol-pay/deposit-listener/internal/utils"

	"github.com/ethereum/go-ethereum/common"
)

func main() {
	var (
		RunTimers bool
		Debug     bool
	)
	flag.BoolVar(&RunTimers, "timers", true, "run periodic pipeline passes in-process")
	flag.BoolVar(&Debug, "debug", false, "enable debug logging")
	flag.Parse()

	if Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("unable to load config: %s", err)
	}

	db, err := repository.Connect(cfg.MysqlDSN)
	if err != nil {
		logrus.Fatalf("unable to connect to mysql: %s", err)
	}
	defer db.Close()

	basectx, cancel := context.WithCancel(context.Background())
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		for range stop {
			cancel()
		}
	}()

	prvkey, relayer, err := utils.ReadPrvkey(cfg.RelayerKeyFile)
	if err != nil {
		logrus.Fatalf("unable to read relayer key: %s", err)
	}
	logrus.Infof("Current relayer address is %s", relayer)

	ledger := repository.NewLedger(db)
	gateways := make(map[string]services.ChainReader, len(chains.SupportedChainIDs))
	relays := make(map[string]services.ProxyRelay, len(chains.SupportedChainIDs))
	for _, chainID := range chains.SupportedChainIDs {
		client, err := gateway.Dial(basectx, chainID, cfg.RPCURLs[chainID])
		if err != nil {
			logrus.Fatalf("unable to connect to chain %s rpc: %s", chainID, err)
		}
		defer client.Close()
		gateways[chainID] = client

		relay := &safeops.Relay{
			ChainID:     chainID,
			Client:      client.Backend(),
			MasterSafe:  common.HexToAddress(cfg.MainSafe),
			Prvkey:      prvkey,
			Account:     relayer,
			WaitTimeout: cfg.SweepWaitTimeout,
		}
		if err := relay.Initial(basectx); err != nil {
			logrus.Fatalf("unable to init sweep relay for chain %s: %s", chainID, err)
		}
		relays[chainID] = relay
	}

	partner := lirium.NewClient(lirium.Config{
		BaseURL:   cfg.LiriumAPIURL,
		SendURL:   cfg.SendURL,
		APIKey:    cfg.LiriumAPIKey,
		SecretKey: cfg.LiriumSecretKey,
		CompanyID: cfg.LiriumCompanyID,
	})

	listener := &services.Listener{
		Fetcher: &services.Fetcher{
			Store:    ledger,
			Gateways: gateways,
			ChainIDs: chains.SupportedChainIDs,
		},
		Confirmer: &services.Confirmer{
			Store:            ledger,
			Gateways:         gateways,
			ChainIDs:         chains.SupportedChainIDs,
			MinConfirmations: cfg.MinConfirmations,
		},
		Sweeper: &services.Sweeper{
			Store:    ledger,
			Relays:   relays,
			ChainIDs: chains.SupportedChainIDs,
		},
		Sender: &services.Sender{
			Store:        ledger,
			Partner:      partner,
			RequireSwept: cfg.RequireSweptBeforeSend,
		},
	}

	eg, egctx := errgroup.WithContext(basectx)

	// Trigger endpoints
	eg.Go(func() error {
		srv := &http.Server{Addr: cfg.ListenAddr, Handler: server.New(listener)}
		go func() {
			<-egctx.Done()
			shutctx, shutcancel := context.WithTimeout(context.Background(), time.Second*5)
			defer shutcancel()
			_ = srv.Shutdown(shutctx)
		}()
		logrus.Infof("Trigger server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Periodic pipeline pass
	eg.Go(func() error {
		if !RunTimers {
			return nil
		}
		logrus.Info("fetching new deposits")
		timer := time.NewTimer(0)
		for {
			select {
			case <-egctx.Done():
				return nil
			case <-timer.C:
				if err := listener.Listen(basectx); err != nil {
					logrus.Errorf("pipeline pass: %s", err)
				}
				timer.Reset(cfg.SyncInterval)
			}
		}
	})

	// Periodic sweep pass
	eg.Go(func() error {
		if !RunTimers {
			return nil
		}
		timer := time.NewTimer(cfg.SweepInterval)
		for {
			select {
			case <-egctx.Done():
				return nil
			case <-timer.C:
				if err := listener.Sweeper.SweepDeposits(basectx); err != nil {
					logrus.Errorf("sweep pass: %s", err)
				}
				timer.Reset(cfg.SweepInterval)
			}
		}
	})

	if err := eg.Wait(); err != nil {
		logrus.Fatal(err)
	}
}

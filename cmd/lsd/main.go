// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/lsd/api"
	apinode "github.com/vechain/lsd/api/node"
	"github.com/vechain/lsd/co"
	"github.com/vechain/lsd/kv"
	"github.com/vechain/lsd/log"
	"github.com/vechain/lsd/logdb"
	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/lvldb"
	"github.com/vechain/lsd/metrics"
	"github.com/vechain/lsd/node"
	"github.com/vechain/lsd/state"
	"github.com/vechain/lsd/transport/remote"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "lsd",
		Usage:     "Liquid staking pool over delegation providers",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			inMemoryFlag,
			cacheFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiLogsLimitFlag,
			apiReadOnlyFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			pprofFlag,
			skipLogsFlag,
			skipJobsFlag,
			blockIntervalFlag,
			requestTimeoutFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "provider-sim",
				Usage: "serve the providers of a network config over HTTP",
				Flags: []cli.Flag{
					configFlag,
					simAddrFlag,
					simEpochFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: providerSimAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadNetwork(ctx *cli.Context) (*network, error) {
	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return nil, err
	}
	setup, err := cfg.resolve()
	if err != nil {
		return nil, errors.WithMessage(err, "config")
	}
	if ctx.IsSet(blockIntervalFlag.Name) {
		setup.chain.BlockInterval = ctx.Uint64(blockIntervalFlag.Name)
	}
	lsd.SetConfig(setup.chain)
	lsd.LockConfig()
	return setup, nil
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)

	setup, err := loadNetwork(ctx)
	if err != nil {
		return err
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	var (
		mainDB  kv.Store
		logDB   *logdb.LogDB
		dataDir = "Memory"
		cacheMB = normalizeCacheSize(ctx.Int(cacheFlag.Name))
	)
	if ctx.Bool(inMemoryFlag.Name) {
		memDB, err := lvldb.NewMem()
		if err != nil {
			return err
		}
		defer func() { logger.Info("closing main database..."); memDB.Close() }()
		mainDB = memDB
		if logDB, err = logdb.NewMem(); err != nil {
			return err
		}
	} else {
		if dataDir, err = makeDataDir(ctx); err != nil {
			return err
		}
		diskDB, err := openMainDB(cacheMB, dataDir)
		if err != nil {
			return err
		}
		defer func() { logger.Info("closing main database..."); diskDB.Close() }()
		mainDB = diskDB
		if logDB, err = openLogDB(dataDir); err != nil {
			return err
		}
	}
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	sim, err := newSimulation(setup, false)
	if err != nil {
		return err
	}
	requestTimeout := ctx.Duration(requestTimeoutFlag.Name)
	blockInterval := time.Duration(lsd.BlockInterval()) * time.Second

	n := node.New(node.Options{
		Pool:           setup.pool,
		BlockInterval:  blockInterval,
		RequestTimeout: requestTimeout,
		SkipJobs:       ctx.Bool(skipJobsFlag.Name),
		SkipLogs:       ctx.Bool(skipLogsFlag.Name),
	}, state.NewStater(mainDB, stateCacheSize(cacheMB)), logDB, newTransport(setup, sim, requestTimeout), sim.SetEpoch)

	apiURL, srvCloser, err := startAPIServer(ctx, api.New(n, logDB, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		SkipLogs:        ctx.Bool(skipLogsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		ReadOnly:        ctx.Bool(apiReadOnlyFlag.Name),
		LogsLimit:       ctx.Uint64(apiLogsLimitFlag.Name),
		Info:            apinode.Info{Version: fullVersion(), Pool: setup.pool.String()},
	}))
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); srvCloser() }()
	if !ctx.Bool(apiReadOnlyFlag.Name) {
		logger.Warn("API actions are enabled and unauthenticated, use --" + apiReadOnlyFlag.Name + " on public nodes")
	}

	var metricsURL, adminURL string
	if ctx.Bool(enableMetricsFlag.Name) {
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
		metricsURL = url
	}
	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := api.StartAdminServer(ctx.String(adminAddrFlag.Name), logLevel, n, blockInterval)
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping admin server..."); closeFunc() }()
		adminURL = url
	}

	printStartupMessage(setup, dataDir, apiURL, metricsURL, adminURL)

	var (
		goes   co.Goes
		runErr error
	)
	runCtx, cancel := context.WithCancel(exitSignal)
	defer cancel()
	goes.Go(func() {
		defer cancel()
		runErr = n.Run(runCtx)
	})
	if err := n.Execute(runCtx, bootstrap(setup)); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("failed to initialize pool", "err", err)
	}
	goes.Wait()
	return runErr
}

func providerSimAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	setup, err := loadNetwork(ctx)
	if err != nil {
		return err
	}
	sim, err := newSimulation(setup, true)
	if err != nil {
		return err
	}

	epoch := ctx.Duration(simEpochFlag.Name)
	if epoch <= 0 {
		epoch = time.Duration(lsd.BlockInterval()*lsd.EpochLength()) * time.Second
	}

	addr := ctx.String(simAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen simulation addr [%v]", addr)
	}

	router := mux.NewRouter()
	remote.NewServer(sim).Mount(router, "/")
	srv := &http.Server{Handler: router, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}

	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	goes.Go(func() {
		ticker := time.NewTicker(epoch)
		defer ticker.Stop()
		for {
			select {
			case <-exitSignal.Done():
				return
			case <-ticker.C:
				sim.SetEpoch(sim.Epoch() + 1)
				logger.Debug("new epoch", "epoch", sim.Epoch())
			}
		}
	})

	fmt.Printf(`Simulating %v providers
    Listening    [ http://%v/ ]
    Epoch        [ %v ]
`, len(setup.providers), listener.Addr(), epoch)

	<-exitSignal.Done()
	srv.Close()
	goes.Wait()
	return nil
}

package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fixengine/config"
	"fixengine/engine"
	"fixengine/fixmsg"
	"fixengine/logs"
	"fixengine/metrics"
	"fixengine/server"
)

var statusPort int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the configured gateway and run the session until interrupted",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().IntVar(&statusPort, "status-port", 8080, "port the /status and /metrics HTTP surface listens on")
}

// runRun is the sole wiring path from config file to a running session:
// load config, build the engine and status server, install signal
// handling, connect, and block until SIGINT/SIGTERM.
func runRun(cmd *cobra.Command, args []string) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	gw, err := config.Load(configPath, gatewaySection)
	if err != nil {
		return err
	}

	fixLog, sessionLog, closer, err := logs.NewSessionLoggers(gw.FileLogPath, gw.SenderCompID)
	if err != nil {
		return err
	}
	defer closer()

	log.Infof("Starting fixctl v%s", Version)
	log.Infof("  Gateway: %s (%s:%d)", gatewaySection, gw.SocketHost, gw.SocketPort)
	log.Infof("  SenderCompID/TargetCompID: %s/%s", gw.SenderCompID, gw.TargetCompID)
	log.Infof("  Log path: %s", gw.FileLogPath)
	log.Infof("  Status port: %d", statusPort)

	cfg := engine.Config{
		SocketHost:             gw.SocketHost,
		SocketPort:             gw.SocketPort,
		BeginString:            gw.BeginString,
		SenderCompID:           gw.SenderCompID,
		TargetCompID:           gw.TargetCompID,
		SenderPassword:         gw.SenderPassword,
		HeartBeatInterval:      gw.HeartBeatInterval(),
		MaxMissedHeartBeats:    gw.MaxMissedHeartBeats,
		MaxReconnectAttempts:   gw.MaxReconnectAttempts,
		ReconnectInterval:      gw.ReconnectInterval(),
		MaxMessagesNo:          gw.MaxMessagesNo,
		MaxMessagesPeriodInSec: gw.MaxMessagesPeriodSec,
		FileLogPath:            gw.FileLogPath,
	}

	listener := func(ctx context.Context, msg *fixmsg.Message) {
		sessionLog.Infof("business message received: %s", msg.MsgType())
	}

	eng := engine.New(cfg, listener, fixLog, sessionLog, nil, nil)

	reg := prometheus.NewRegistry()
	eng.SetMetrics(metrics.NewRegistry(reg, gw.SenderCompID))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutdown signal received")
		cancel()
	}()

	statusSrv := server.New(statusPort, eng, reg)
	go func() {
		if err := statusSrv.Run(ctx); err != nil {
			log.Errorf("status server error: %v", err)
		}
	}()

	if err := eng.Connect(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return eng.Disconnect(context.Background())
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bucketrun/bucketrun/common/logger"
	"github.com/bucketrun/bucketrun/engine"
	"github.com/bucketrun/bucketrun/httpapi"
	"github.com/bucketrun/bucketrun/planfile"
	"github.com/bucketrun/bucketrun/tracestore"
)

var serveFlags struct {
	planFiles      []string
	address        string
	traceDB        string
	traceRetention time.Duration
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve one or more compiled plans over HTTP.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringSliceVarP(&serveFlags.planFiles, "file", "f", nil, "Plan file to serve; may be given multiple times. Each is registered under its base file name.")
	serveCmd.Flags().StringVarP(&serveFlags.address, "address", "a", ":8080", "Address to listen on.")
	serveCmd.Flags().StringVar(&serveFlags.traceDB, "trace-db", "", "Optional path to a sqlite database to record and prune step traces in.")
	serveCmd.Flags().DurationVar(&serveFlags.traceRetention, "trace-retention", 24*time.Hour, "How long to keep step traces before the background pruner deletes them.")
	_ = serveCmd.MarkFlagRequired("file")
}

func runServe(cmd *cobra.Command, args []string) error {
	registry, err := logger.NewLogRegistry("")
	if err != nil {
		return err
	}
	logFactory := logger.MakeLogrusLogFactoryStdOut(registry)
	log := logFactory("serve")

	plans := map[string]*engine.LayerPlan{}
	stepReg := stepRegistry(logFactory)
	for _, path := range serveFlags.planFiles {
		raw, configType, err := readPlanFile(path)
		if err != nil {
			return err
		}
		doc, err := planfile.NewParser().Parse(raw, configType)
		if err != nil {
			return fmt.Errorf("error parsing plan file %s: %w", path, err)
		}
		plan, err := planfile.Compile(doc, stepReg)
		if err != nil {
			return fmt.Errorf("error compiling plan file %s: %w", path, err)
		}
		plans[planName(path)] = plan
	}

	var traceStore *tracestore.Store
	if serveFlags.traceDB != "" {
		db, cleanup, err := tracestore.Open(cmd.Context(), tracestore.DatabaseConfig{
			Driver:           tracestore.Sqlite3,
			ConnectionString: serveFlags.traceDB,
		}, logFactory)
		if err != nil {
			return fmt.Errorf("error opening trace database: %w", err)
		}
		defer cleanup()
		traceStore = tracestore.NewStore(db)
		pruner := tracestore.NewPruner(traceStore, serveFlags.traceRetention, 0, logFactory)
		pruner.Start()
		defer pruner.Stop()
	}

	server := httpapi.NewServer(plans, httpapi.ServerConfig{Address: serveFlags.address}, logFactory, traceStore)
	server.Start()
	log.Infof("serving %d plan(s) on %s", len(plans), server.Addr())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	return server.Stop(context.Background())
}

func planName(path string) string {
	base := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		base = path[idx+1:]
	}
	if idx := strings.IndexByte(base, '.'); idx >= 0 {
		base = base[:idx]
	}
	return base
}

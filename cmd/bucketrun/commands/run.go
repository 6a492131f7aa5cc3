package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bucketrun/bucketrun/cmd/bucketrun/cli"
	"github.com/bucketrun/bucketrun/common/logger"
	"github.com/bucketrun/bucketrun/diagnostics"
	"github.com/bucketrun/bucketrun/engine"
	"github.com/bucketrun/bucketrun/planfile"
	"github.com/bucketrun/bucketrun/tracestore"
)

var runFlags struct {
	planFile    string
	size        int
	meta        string
	stepTimeout time.Duration
	traceDB     string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compile a plan file and execute it once over a fresh bucket.",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runFlags.planFile, "file", "f", "", "Path to the plan file to run (required).")
	runCmd.Flags().IntVarP(&runFlags.size, "size", "s", 1, "Number of rows in the bucket.")
	runCmd.Flags().StringVar(&runFlags.meta, "meta", "", "JSON value handed to every step as Extra.Meta.")
	runCmd.Flags().DurationVar(&runFlags.stepTimeout, "step-timeout", 0, "Per-step timeout; zero disables it.")
	runCmd.Flags().StringVar(&runFlags.traceDB, "trace-db", "", "Optional path to a sqlite database to record step traces into.")
	_ = runCmd.MarkFlagRequired("file")
}

func runRun(cmd *cobra.Command, args []string) error {
	registry, err := logger.NewLogRegistry("")
	if err != nil {
		return err
	}
	logFactory := logger.MakeLogrusLogFactoryStdOut(registry)
	log := logFactory("run")

	raw, configType, err := readPlanFile(runFlags.planFile)
	if err != nil {
		return err
	}

	doc, err := planfile.NewParser().Parse(raw, configType)
	if err != nil {
		return fmt.Errorf("error parsing plan file: %w", err)
	}

	plan, err := planfile.Compile(doc, stepRegistry(logFactory))
	if err != nil {
		return fmt.Errorf("error compiling plan: %w", err)
	}

	var meta interface{}
	if runFlags.meta != "" {
		if err := json.Unmarshal([]byte(runFlags.meta), &meta); err != nil {
			return fmt.Errorf("error parsing --meta as JSON: %w", err)
		}
	}

	emitter := diagnostics.NewEmitter(logFactory)

	spinners := newStepSpinnerManager()
	unsubscribeSpinners := emitter.Subscribe(spinners)
	defer unsubscribeSpinners()

	if runFlags.traceDB != "" {
		db, cleanup, err := tracestore.Open(cmd.Context(), tracestore.DatabaseConfig{
			Driver:           tracestore.Sqlite3,
			ConnectionString: runFlags.traceDB,
		}, logFactory)
		if err != nil {
			return fmt.Errorf("error opening trace database: %w", err)
		}
		defer cleanup()
		recorder := tracestore.NewRecorder(tracestore.NewStore(db), uuid.New().String(), clock.New())
		unsubscribeRecorder := emitter.Subscribe(recorder)
		defer unsubscribeRecorder()
	}

	spinners.Start()
	bucket := engine.NewBucket(runFlags.size)
	execErr := engine.ExecuteBucket(context.Background(), plan, bucket, engine.ExecutionOptions{
		Meta:         meta,
		EventEmitter: emitter,
		StepTimeout:  runFlags.stepTimeout,
	})
	spinners.Stop()

	if execErr != nil {
		return execErr
	}

	for _, id := range plan.Order() {
		col, _ := bucket.Column(id)
		log.WithField("step", id.String()).Infof("%v", col)
	}
	if bucket.HasErrors() {
		cli.Stderr.Println("bucket execution completed with row-level errors")
	}
	return nil
}

// readPlanFile loads path and infers its ConfigType from its extension.
func readPlanFile(path string) ([]byte, planfile.ConfigType, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("error reading plan file %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return raw, planfile.ConfigTypeYAML, nil
	case ".json":
		return raw, planfile.ConfigTypeJSON, nil
	case ".jsonnet":
		return raw, planfile.ConfigTypeJSONNET, nil
	default:
		return nil, "", fmt.Errorf("error reading plan file %s: unrecognised extension %q", path, ext)
	}
}

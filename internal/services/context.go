package services

import "context"

type contextKey string

const (
	filePathKey  contextKey = "file_path"
	phaseKey     contextKey = "phase"
	workerKey    contextKey = "worker"
	requestIDKey contextKey = "request_id"
)

// WithFilePath annotates context with the file being processed.
func WithFilePath(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, filePathKey, path)
}

// FilePathFromContext extracts the file path if present.
func FilePathFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(filePathKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPhase annotates context with the workflow phase name.
func WithPhase(ctx context.Context, phase string) context.Context {
	if phase == "" {
		return ctx
	}
	return context.WithValue(ctx, phaseKey, phase)
}

// PhaseFromContext returns the phase name if present.
func PhaseFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(phaseKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithWorker annotates context with the worker index.
func WithWorker(ctx context.Context, worker int) context.Context {
	return context.WithValue(ctx, workerKey, worker)
}

// WorkerFromContext extracts the worker index if present.
func WorkerFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(workerKey).(int); ok {
		return v, true
	}
	return 0, false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

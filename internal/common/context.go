package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeySubmissionID contextKey = "submission_id"
	ContextKeyFileName     contextKey = "file_name"
)

// WithSubmissionID adds a submission ID to the context
func WithSubmissionID(ctx context.Context, submissionID string) context.Context {
	return context.WithValue(ctx, ContextKeySubmissionID, submissionID)
}

// SubmissionIDFromContext extracts the submission ID from context
func SubmissionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeySubmissionID).(string); ok {
		return id
	}
	return ""
}

// WithFileName adds the submitted file name to the context
func WithFileName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ContextKeyFileName, name)
}

// FileNameFromContext extracts the submitted file name from context
func FileNameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(ContextKeyFileName).(string); ok {
		return name
	}
	return ""
}

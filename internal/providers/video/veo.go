// Package video adapts the genai client to the submit/refresh/resolve
// operations the video service consumes.
package video

import (
	"context"

	"server/internal/domain"
	"server/internal/providers/genai"
)

// SubmitRequest describes one video generation job.
type SubmitRequest struct {
	Prompt      string
	AspectRatio string
	SeedImage   *domain.InlineImage
}

// Snapshot is the interpreted state of a refreshed operation. Token carries
// the provider's refreshed raw payload for persistence.
type Snapshot struct {
	Token        domain.OperationToken
	Done         bool
	Failed       bool
	ErrorMessage string
	DownloadURI  string
}

// Operator is the provider surface the video service depends on: submit a
// job, refresh its state, resolve a download reference into a fetchable URL.
type Operator interface {
	Submit(ctx context.Context, req SubmitRequest) (domain.OperationToken, error)
	Refresh(ctx context.Context, token domain.OperationToken) (*Snapshot, error)
	DownloadURL(uri string) (string, error)
}

// Veo implements Operator over the genai client.
type Veo struct {
	client *genai.Client
}

func NewVeo(client *genai.Client) *Veo {
	return &Veo{client: client}
}

func (v *Veo) Submit(ctx context.Context, req SubmitRequest) (domain.OperationToken, error) {
	return v.client.GenerateVideos(ctx, genai.VideosRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		SeedImage:   req.SeedImage,
	})
}

func (v *Veo) Refresh(ctx context.Context, token domain.OperationToken) (*Snapshot, error) {
	op, err := v.client.GetVideosOperation(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Token:        op.Token,
		Done:         op.Done,
		Failed:       op.Failed,
		ErrorMessage: op.ErrorMessage,
		DownloadURI:  op.DownloadURI,
	}, nil
}

func (v *Veo) DownloadURL(uri string) (string, error) {
	return v.client.DownloadURL(uri)
}

var _ Operator = (*Veo)(nil)

// Package editor runs generation and follow-up edit turns against a model
// and records the resulting document versions.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"sitedit/internal/llm"
	"sitedit/internal/patch"
	"sitedit/internal/storage"
	"sitedit/internal/stream"

	"github.com/sirupsen/logrus"
)

var (
	// ErrMissingFields is returned when a request lacks required input.
	ErrMissingFields = errors.New("missing required fields")
	// ErrNoContent is returned when the model reply holds nothing usable.
	ErrNoContent = errors.New("no content returned from the model")
	// ErrStreamInterrupted wraps failures that happen after output has
	// already been written to the caller.
	ErrStreamInterrupted = errors.New("stream interrupted")
)

// ClientFactory returns a model client for a request. apiKey and model may be
// empty, in which case the factory applies its own defaults.
type ClientFactory func(ctx context.Context, apiKey, model string) (llm.Client, error)

type GenerateRequest struct {
	Session          string
	Prompt           string
	Model            string
	APIKey           string
	RedesignMarkdown string
}

type FollowUpRequest struct {
	Session        string
	Prompt         string
	PreviousPrompt string
	HTML           string
	APIKey         string
}

type FollowUpResult struct {
	HTML         string
	UpdatedLines []patch.Range
	Applied      int
	Skipped      int
}

type Service struct {
	newClient     ClientFactory
	store         storage.HistoryStore
	log           logrus.FieldLogger
	prompts       *llm.PromptBuilder
	followUpModel string
}

// NewService wires a Service. store may be nil to disable history.
func NewService(newClient ClientFactory, store storage.HistoryStore, log logrus.FieldLogger, followUpModel string) *Service {
	if followUpModel == "" {
		followUpModel = llm.DefaultFollowUpModel()
	}
	return &Service{
		newClient:     newClient,
		store:         store,
		log:           log,
		prompts:       &llm.PromptBuilder{},
		followUpModel: followUpModel,
	}
}

// errStopStream ends a generation stream once the document is complete.
var errStopStream = errors.New("document complete")

// Generate streams a full document for req into w. Errors raised before any
// byte reached w are returned as is; later ones wrap ErrStreamInterrupted.
func (s *Service) Generate(ctx context.Context, req GenerateRequest, w io.Writer) error {
	if req.Model == "" || (strings.TrimSpace(req.Prompt) == "" && req.RedesignMarkdown == "") {
		return ErrMissingFields
	}

	client, err := s.newClient(ctx, req.APIKey, req.Model)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	log := s.log.WithFields(logrus.Fields{"session": req.Session, "model": req.Model})
	info, known := llm.LookupModel(req.Model)
	if !known {
		log.Warn("model is not in the catalogue, passing it to the provider as is")
	}
	log.WithField("redesign", req.RedesignMarkdown != "").Info("generating document")

	asm := stream.NewAssembler()
	written := false
	err = client.Stream(ctx, s.prompts.BuildGenerateMessages(req.Prompt, req.RedesignMarkdown), func(chunk string) error {
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		written = true
		if asm.Write(chunk) {
			return errStopStream
		}
		return nil
	})
	if errors.Is(err, errStopStream) {
		err = nil
	}
	if err != nil {
		if written {
			return fmt.Errorf("%w: %w", ErrStreamInterrupted, err)
		}
		return err
	}

	if thinking, open := asm.Thinking(); thinking != "" || info.Thinker {
		log.WithFields(logrus.Fields{
			"thinking_bytes": len(thinking),
			"unclosed":       open,
		}).Info("model emitted a reasoning section")
	}
	if !asm.Done() {
		log.WithField("bytes", len(asm.Raw())).Warn("stream ended without a closing </html>")
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = "redesign"
	}
	s.record(ctx, log, &storage.HistoryEntry{Session: req.Session, Prompt: prompt, HTML: asm.Final()})
	return nil
}

// FollowUp asks the model for SEARCH/REPLACE blocks and applies them to
// req.HTML. Blocks whose search text is missing are skipped and logged.
func (s *Service) FollowUp(ctx context.Context, req FollowUpRequest) (*FollowUpResult, error) {
	if strings.TrimSpace(req.Prompt) == "" || req.HTML == "" {
		return nil, ErrMissingFields
	}

	client, err := s.newClient(ctx, req.APIKey, s.followUpModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	log := s.log.WithFields(logrus.Fields{"session": req.Session, "model": s.followUpModel})

	reply, err := client.Complete(ctx, s.prompts.BuildFollowUpMessages(req.HTML, req.PreviousPrompt, req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("follow-up completion failed: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, ErrNoContent
	}

	instructions := patch.Extract(reply)
	if len(instructions) == 0 {
		log.WithField("reply_bytes", len(reply)).Warn("model reply contained no edit blocks")
		return nil, ErrNoContent
	}

	res := patch.Apply(req.HTML, instructions)
	for _, i := range res.Unmatched {
		log.WithFields(logrus.Fields{
			"block":  i,
			"search": preview(instructions[i].Search),
		}).Warn("search block not found in document, skipped")
	}
	for _, i := range res.Ambiguous {
		log.WithFields(logrus.Fields{
			"block":  i,
			"search": preview(instructions[i].Search),
		}).Warn("search block matched more than once, replaced first occurrence")
	}
	log.WithFields(logrus.Fields{
		"blocks":    len(instructions),
		"unmatched": len(res.Unmatched),
	}).Info("applied follow-up edit")

	s.record(ctx, log, &storage.HistoryEntry{
		Session:      req.Session,
		Prompt:       req.Prompt,
		HTML:         res.Document,
		UpdatedLines: res.Changes,
	})

	return &FollowUpResult{
		HTML:         res.Document,
		UpdatedLines: res.Changes,
		Applied:      len(instructions) - len(res.Unmatched),
		Skipped:      len(res.Unmatched),
	}, nil
}

// record saves a version. History is best effort and never fails a turn.
func (s *Service) record(ctx context.Context, log logrus.FieldLogger, e *storage.HistoryEntry) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveEntry(ctx, e); err != nil {
		log.WithError(err).Error("failed to save history entry")
	}
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	const limit = 80
	if r := []rune(s); len(r) > limit {
		return string(r[:limit]) + "…"
	}
	return s
}

// Package gtranslate is a synchronous translation backend on the Google
// Cloud Translation API, selectable instead of the camb.ai job API.
package gtranslate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/oukeidos/amrelay/internal/apperrors"
	lang "github.com/oukeidos/amrelay/internal/language"
	"github.com/oukeidos/amrelay/internal/logger"
)

// translateAPI is the part of *translate.Client the service uses.
type translateAPI interface {
	Translate(ctx context.Context, inputs []string, target language.Tag, opts *translate.Options) ([]translate.Translation, error)
	Close() error
}

type Config struct {
	// APIKey takes precedence over CredentialsFile.
	APIKey          string
	CredentialsFile string
}

type Service struct {
	client translateAPI
}

func NewService(ctx context.Context, cfg Config) (*Service, error) {
	var opts []option.ClientOption
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google translate client: %w", err)
	}
	return &Service{client: client}, nil
}

func (s *Service) Name() string {
	return "google"
}

func (s *Service) Close() error {
	return s.client.Close()
}

func (s *Service) Translate(ctx context.Context, text string, source, target lang.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperrors.Validation("Text is required.")
	}
	for _, l := range []lang.Language{source, target} {
		if l.Tag == language.Und {
			return "", apperrors.Validation(fmt.Sprintf("Language id %d is not supported by the google backend.", l.ID))
		}
	}

	translations, err := s.client.Translate(ctx, []string{text}, target.Tag, &translate.Options{
		Source: source.Tag,
		Format: translate.Text,
	})
	if err != nil {
		return "", classifyGoogleError(ctx, err)
	}
	if len(translations) == 0 || strings.TrimSpace(translations[0].Text) == "" {
		return "", apperrors.ResultFetch(errors.New("google translate: no translation returned"))
	}

	logger.FromContext(ctx).Debug("Google translation done", "source", source.Code, "target", target.Code)
	return translations[0].Text, nil
}

func classifyGoogleError(ctx context.Context, err error) error {
	wrapped := fmt.Errorf("google translate: %w", err)

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 401 || gerr.Code == 403:
			return apperrors.New(apperrors.KindSubmission,
				fmt.Sprintf("Translation provider rejected the credentials (%d).", gerr.Code), wrapped)
		case gerr.Code == 429:
			return apperrors.New(apperrors.KindSubmission, "Translation provider rate limit exceeded (429).", wrapped)
		case gerr.Code >= 500:
			return apperrors.New(apperrors.KindUpstream,
				fmt.Sprintf("Translation service temporary error (%d).", gerr.Code), wrapped)
		case gerr.Code >= 400:
			return apperrors.Rejected(
				fmt.Sprintf("Translation request was rejected by the provider (%d).", gerr.Code), wrapped)
		default:
			return apperrors.New(apperrors.KindSubmission,
				fmt.Sprintf("Translation request was rejected by the provider (%d).", gerr.Code), wrapped)
		}
	}

	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return apperrors.Canceled(wrapped)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.Timeout(wrapped)
	}
	return apperrors.New(apperrors.KindNetwork, "Translation service is unreachable.", wrapped)
}

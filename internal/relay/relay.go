// Package relay runs one question through translate-in, answer and
// translate-out, and exposes the translation backend directly.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"

	"github.com/oukeidos/amrelay/internal/apperrors"
	"github.com/oukeidos/amrelay/internal/language"
	"github.com/oukeidos/amrelay/internal/logger"
)

// DefaultMaxGraphemes bounds inbound text in user-perceived characters.
const DefaultMaxGraphemes = 2000

// Translator converts text between two provider languages.
type Translator interface {
	Name() string
	Translate(ctx context.Context, text string, source, target language.Language) (string, error)
}

// Answerer answers an English question in English.
type Answerer interface {
	Name() string
	Answer(ctx context.Context, question string) (string, error)
}

type Options struct {
	// MaxGraphemes limits question and text length. 0 takes the default,
	// a negative value disables the check.
	MaxGraphemes int
	// UserLanguage is the language questions arrive in and answers leave
	// in. The zero value means Amharic.
	UserLanguage language.Language
	// PivotLanguage is the answer provider's language. The zero value
	// means English.
	PivotLanguage language.Language
}

type Service struct {
	translator   Translator
	answerer     Answerer
	maxGraphemes int
	user         language.Language
	pivot        language.Language
}

func New(translator Translator, answerer Answerer, opts Options) *Service {
	if opts.MaxGraphemes == 0 {
		opts.MaxGraphemes = DefaultMaxGraphemes
	}
	if opts.UserLanguage.ID == 0 {
		opts.UserLanguage = language.Amharic
	}
	if opts.PivotLanguage.ID == 0 {
		opts.PivotLanguage = language.English
	}
	return &Service{
		translator:   translator,
		answerer:     answerer,
		maxGraphemes: opts.MaxGraphemes,
		user:         opts.UserLanguage,
		pivot:        opts.PivotLanguage,
	}
}

// Ask translates question to the pivot language, answers it, and
// translates the answer back. Each of the three calls happens once and
// in that order; the first failure aborts the chain.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	question, err := s.normalize(question, "No question provided")
	if err != nil {
		return "", err
	}
	if s.answerer == nil {
		return "", apperrors.Upstream(errors.New("no answer provider configured"))
	}
	log := logger.FromContext(ctx)

	pivotQuestion, err := s.translator.Translate(ctx, question, s.user, s.pivot)
	if err != nil {
		return "", err
	}
	log.Debug("Question translated", "provider", s.translator.Name())

	pivotAnswer, err := s.answerer.Answer(ctx, pivotQuestion)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(pivotAnswer) == "" {
		return "", apperrors.Upstream(fmt.Errorf("%s returned an empty answer", s.answerer.Name()))
	}
	log.Debug("Answer received", "provider", s.answerer.Name())

	answer, err := s.translator.Translate(ctx, pivotAnswer, s.pivot, s.user)
	if err != nil {
		return "", err
	}
	return answer, nil
}

// Translate passes text straight to the translation backend.
func (s *Service) Translate(ctx context.Context, text string, source, target language.Language) (string, error) {
	text, err := s.normalize(text, "Text is required.")
	if err != nil {
		return "", err
	}
	if source.ID <= 0 || target.ID <= 0 {
		return "", apperrors.Validation("sourceLangId and targetLangId must be positive integers.")
	}
	return s.translator.Translate(ctx, text, source, target)
}

func (s *Service) normalize(text, emptyMessage string) (string, error) {
	text = strings.TrimSpace(norm.NFC.String(text))
	if text == "" {
		return "", apperrors.Validation(emptyMessage)
	}
	if s.maxGraphemes > 0 {
		if n := uniseg.GraphemeClusterCount(text); n > s.maxGraphemes {
			return "", apperrors.Validation(fmt.Sprintf("Input is too long (%d characters, limit %d).", n, s.maxGraphemes))
		}
	}
	return text, nil
}

package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/oukeidos/amrelay/internal/answer"
	"github.com/oukeidos/amrelay/internal/apperrors"
	"google.golang.org/api/googleapi"
)

func classifyGeminiError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	wrapped := fmt.Errorf("gemini generate content failed: %w", err)

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 400:
			return apperrors.NewClientCaused(apperrors.KindUpstream, "Gemini request rejected (400).", wrapped)
		case 404:
			return apperrors.New(apperrors.KindUpstream, "Gemini model not found or no access (404).", wrapped)
		case 401, 403:
			return apperrors.New(apperrors.KindUpstream, fmt.Sprintf("Gemini authentication/authorization failed (%d).", gerr.Code), wrapped)
		case 429:
			return apperrors.New(apperrors.KindUpstream, "Gemini rate limit exceeded (429). Please try again later.", wrapped)
		default:
			if gerr.Code >= 500 {
				return apperrors.New(apperrors.KindUpstream, fmt.Sprintf("Gemini service temporary error (%d).", gerr.Code), wrapped)
			}
			return apperrors.New(apperrors.KindUpstream, fmt.Sprintf("Gemini API error (%d).", gerr.Code), wrapped)
		}
	}

	// DNS, socket and deadline failures carry no status code.
	return answer.TransportError(ctx, wrapped)
}

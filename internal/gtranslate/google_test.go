package gtranslate

import (
	"context"
	"errors"
	"testing"

	translate "cloud.google.com/go/translate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"

	"github.com/oukeidos/amrelay/internal/apperrors"
	lang "github.com/oukeidos/amrelay/internal/language"
)

type fakeTranslateAPI struct {
	translations []translate.Translation
	err          error

	calls     int
	gotInputs []string
	gotTarget language.Tag
	gotOpts   *translate.Options
}

func (f *fakeTranslateAPI) Translate(ctx context.Context, inputs []string, target language.Tag, opts *translate.Options) ([]translate.Translation, error) {
	f.calls++
	f.gotInputs = inputs
	f.gotTarget = target
	f.gotOpts = opts
	return f.translations, f.err
}

func (f *fakeTranslateAPI) Close() error { return nil }

func TestService_Translate(t *testing.T) {
	fake := &fakeTranslateAPI{translations: []translate.Translation{{Text: "hello"}}}
	s := &Service{client: fake}

	got, err := s.Translate(context.Background(), "ሰላም", lang.Amharic, lang.English)

	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Equal(t, []string{"ሰላም"}, fake.gotInputs)
	assert.Equal(t, language.English, fake.gotTarget)
	require.NotNil(t, fake.gotOpts)
	assert.Equal(t, language.Amharic, fake.gotOpts.Source)
	assert.Equal(t, translate.Text, fake.gotOpts.Format)
	assert.Equal(t, "google", s.Name())
}

func TestService_Translate_RejectsUnknownLanguage(t *testing.T) {
	fake := &fakeTranslateAPI{}
	s := &Service{client: fake}

	_, err := s.Translate(context.Background(), "hi", lang.English, lang.FromID(76))

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Zero(t, fake.calls)
}

func TestService_Translate_EmptyResult(t *testing.T) {
	s := &Service{client: &fakeTranslateAPI{}}

	_, err := s.Translate(context.Background(), "hi", lang.English, lang.Amharic)

	assert.True(t, apperrors.Is(err, apperrors.KindResultFetch), "got %v", err)
}

func TestClassifyGoogleError(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		err          error
		want         apperrors.Kind
		clientCaused bool
	}{
		{&googleapi.Error{Code: 403}, apperrors.KindSubmission, false},
		{&googleapi.Error{Code: 400}, apperrors.KindSubmission, true},
		{&googleapi.Error{Code: 429}, apperrors.KindSubmission, false},
		{&googleapi.Error{Code: 503}, apperrors.KindUpstream, false},
		{errors.New("dial tcp: connection refused"), apperrors.KindNetwork, false},
	}
	for _, tt := range tests {
		got := classifyGoogleError(ctx, tt.err)
		kind, _ := apperrors.KindOf(got)
		assert.Equal(t, tt.want, kind, "error %v", tt.err)
		assert.Equal(t, !tt.clientCaused, apperrors.IsUpstreamFailure(got), "error %v", tt.err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.True(t, apperrors.Is(classifyGoogleError(canceled, canceled.Err()), apperrors.KindCanceled))
}

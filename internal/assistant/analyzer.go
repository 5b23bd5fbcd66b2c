package assistant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"FitPulse_V0.1/internal/geminiservice"
)

const analysisCacheSize = 256

// VisionModel is the slice of the Gemini client photo analysis needs.
type VisionModel interface {
	GenerateVision(ctx context.Context, prompt string, img geminiservice.InlineImage, cfg *geminiservice.GenerationConfig) (string, error)
	Model() string
}

// Analyzer estimates calories from food photos. Results are transient: they
// are returned to the caller and memoized in-process, never persisted.
type Analyzer struct {
	model    VisionModel
	fallback VisionModel // may be nil
	invoker  *geminiservice.Invoker

	// cache keyed by image digest, so re-submitting the same photo does
	// not re-bill the provider.
	cache *lru.Cache[string, *geminiservice.FoodAnalysisResult]
}

func NewAnalyzer(model, fallback VisionModel, invoker *geminiservice.Invoker) (*Analyzer, error) {
	cache, err := lru.New[string, *geminiservice.FoodAnalysisResult](analysisCacheSize)
	if err != nil {
		return nil, err
	}
	return &Analyzer{model: model, fallback: fallback, invoker: invoker, cache: cache}, nil
}

// Analyze runs the food photo through the vision model and normalizes the
// output into a structurally complete result.
func (a *Analyzer) Analyze(ctx context.Context, img geminiservice.InlineImage) (*geminiservice.FoodAnalysisResult, error) {
	key := imageKey(img)
	if cached, ok := a.cache.Get(key); ok {
		log.Debug().Str("image_key", key).Msg("food analysis cache hit")
		return cached, nil
	}

	primary := func(ctx context.Context) (string, error) {
		return a.model.GenerateVision(ctx, geminiservice.FoodAnalysisPrompt, img, geminiservice.VisionGenerationConfig())
	}
	var fallback geminiservice.ModelCall
	if a.fallback != nil {
		fallback = func(ctx context.Context) (string, error) {
			return a.fallback.GenerateVision(ctx, geminiservice.FoodAnalysisPrompt, img, geminiservice.VisionGenerationConfig())
		}
	}

	raw, err := a.invoker.Invoke(ctx, primary, fallback)
	if err != nil {
		log.Error().Err(err).Msg("food analysis generation failed")
		return nil, err
	}

	result, err := geminiservice.ParseFoodAnalysis(raw)
	if err != nil {
		return nil, err
	}

	a.cache.Add(key, result)
	return result, nil
}

func imageKey(img geminiservice.InlineImage) string {
	sum := sha256.Sum256(img.Data)
	return img.MimeType + ":" + hex.EncodeToString(sum[:])
}

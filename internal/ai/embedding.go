package ai

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var ErrImageEmbeddingUnsupported = errors.New("image embeddings are not configured")

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// HTTPEmbedder calls an OpenAI-compatible /embeddings endpoint. Images are
// sent as data URLs to ImageModel, which must be a multimodal embedding
// model; without one EmbedImage fails.
type HTTPEmbedder struct {
	apiURL     string
	apiKey     string
	model      string
	imageModel string
	dimensions int
	client     *http.Client
}

type HTTPEmbedderConfig struct {
	APIURL     string
	APIKey     string
	Model      string
	ImageModel string
	Dimensions int
	Timeout    time.Duration
}

func NewHTTPEmbedder(cfg HTTPEmbedderConfig) *HTTPEmbedder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPEmbedder{
		apiURL:     cfg.APIURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		imageModel: cfg.ImageModel,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

func (e *HTTPEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}
	return e.embed(ctx, e.model, text)
}

func (e *HTTPEmbedder) EmbedImage(ctx context.Context, data []byte) ([]float64, error) {
	if e.imageModel == "" {
		return nil, ErrImageEmbeddingUnsupported
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	uri := "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
	return e.embed(ctx, e.imageModel, uri)
}

func (e *HTTPEmbedder) embed(ctx context.Context, model, input string) ([]float64, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ai.embed")
	defer span.End()
	span.SetAttributes(attribute.String("ai.model", model))

	payload, err := json.Marshal(embeddingRequest{Model: model, Input: []string{input}, Dimensions: e.dimensions})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrProviderStatus, resp.StatusCode)
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, ErrEmptyResponse
	}
	return parsed.Data[0].Embedding, nil
}

// HashEmbedder is a deterministic local embedder for development and tests.
// Text is a normalised bag of hashed word tokens, so texts sharing words have
// a positive cosine; images are a byte histogram seeded by their digest.
type HashEmbedder struct {
	dimensions int
}

func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &HashEmbedder{dimensions: dimensions}
}

func (h *HashEmbedder) EmbedText(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return nil, fmt.Errorf("no tokens to embed")
	}
	for _, w := range words {
		f := fnv.New32a()
		f.Write([]byte(w))
		sum := f.Sum32()
		sign := 1.0
		if sum&1 == 1 {
			sign = -1
		}
		vec[int(sum>>1)%h.dimensions] += sign
	}
	return normalise(vec), nil
}

func (h *HashEmbedder) EmbedImage(_ context.Context, data []byte) ([]float64, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	vec := make([]float64, h.dimensions)
	digest := md5.Sum(data)
	for i := range vec {
		vec[i] = float64(digest[i%len(digest)])/255.0*2.0 - 1.0
	}
	for _, b := range data {
		vec[int(b)%h.dimensions] += 1.0 / float64(len(data))
	}
	return normalise(vec), nil
}

func normalise(v []float64) []float64 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] /= norm
	}
	return v
}

// Package sarvam implements the pipeline's collaborator interfaces against
// the Sarvam AI HTTP API: Saarika speech-to-text, the Sarvam-M chat model,
// Mayura translation, and Bulbul text-to-speech.
package sarvam

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/knightsri/sarvam-explorer/internal/pipeline"
)

const (
	defaultBaseURL = "https://api.sarvam.ai"

	asrModel       = "saarika:v2.5"
	llmModel       = "sarvam-m"
	translateModel = "mayura:v1"
	ttsModel       = "bulbul:v2"
	ttsSpeaker     = "anushka"
	ttsSampleRate  = 22050
)

type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

// NewClient builds a client for the Sarvam API. An empty baseURL selects the
// production endpoint.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpc:   &http.Client{},
	}
}

// Transcribe sends one audio chunk to the speech-to-text endpoint.
func (c *Client) Transcribe(ctx context.Context, audio []byte, languageHint string) (pipeline.TranscribeResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("model", asrModel); err != nil {
		return pipeline.TranscribeResult{}, err
	}
	if err := mw.WriteField("mode", "transcribe"); err != nil {
		return pipeline.TranscribeResult{}, err
	}
	if err := mw.WriteField("language_code", languageHint); err != nil {
		return pipeline.TranscribeResult{}, err
	}
	fw, err := mw.CreateFormFile("file", "chunk.mp3")
	if err != nil {
		return pipeline.TranscribeResult{}, err
	}
	if _, err := fw.Write(audio); err != nil {
		return pipeline.TranscribeResult{}, err
	}
	if err := mw.Close(); err != nil {
		return pipeline.TranscribeResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/speech-to-text", &body)
	if err != nil {
		return pipeline.TranscribeResult{}, err
	}
	req.Header.Set("api-subscription-key", c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		Transcript   string `json:"transcript"`
		LanguageCode string `json:"language_code"`
	}
	if err := c.do(req, &out); err != nil {
		return pipeline.TranscribeResult{}, fmt.Errorf("speech-to-text: %w", err)
	}
	return pipeline.TranscribeResult{Text: out.Transcript, LanguageCode: out.LanguageCode}, nil
}

const analysisPrompt = `You are an analyst reviewing a transcribed audio segment.

Transcript:
%s

Return ONLY a valid JSON object - no markdown, no code fences, no explanation. Use exactly these keys:
{
  "summary": "3-5 sentence summary of the content",
  "language_detected": "Language name in English (e.g. Hindi, Tamil)",
  "key_entities": ["entity1", "entity2"],
  "topics": ["topic1", "topic2"],
  "tone": "Positive | Negative | Neutral",
  "tone_explanation": "One sentence explaining the tone"
}`

// Analyse sends the transcript through the chat completions endpoint with the
// fixed-shape analysis prompt and returns the raw model content.
func (c *Client) Analyse(ctx context.Context, transcript string) (string, error) {
	payload := map[string]any{
		"model": llmModel,
		"messages": []map[string]string{
			{"role": "user", "content": fmt.Sprintf(analysisPrompt, transcript)},
		},
		"max_tokens": 1024,
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.postJSON(ctx, "/v1/chat/completions", payload, &out); err != nil {
		return "", fmt.Errorf("chat completions: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completions: empty choices")
	}
	return out.Choices[0].Message.Content, nil
}

// Translate converts text between language codes via the translate endpoint.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	payload := map[string]any{
		"input":                text,
		"source_language_code": sourceLang,
		"target_language_code": targetLang,
		"speaker_gender":       "Male",
		"mode":                 "formal",
		"model":                translateModel,
		"enable_preprocessing": true,
	}

	var out struct {
		TranslatedText string `json:"translated_text"`
	}
	if err := c.postJSON(ctx, "/translate", payload, &out); err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	return out.TranslatedText, nil
}

// Synthesize renders one text piece as speech and returns the decoded WAV
// payload.
func (c *Client) Synthesize(ctx context.Context, text, targetLang string) ([]byte, error) {
	payload := map[string]any{
		"inputs":               []string{text},
		"target_language_code": targetLang,
		"model":                ttsModel,
		"speaker":              ttsSpeaker,
		"pitch":                0,
		"pace":                 1.0,
		"loudness":             1.5,
		"speech_sample_rate":   ttsSampleRate,
		"enable_preprocessing": true,
	}

	var out struct {
		Audios []string `json:"audios"`
	}
	if err := c.postJSON(ctx, "/text-to-speech", payload, &out); err != nil {
		return nil, fmt.Errorf("text-to-speech: %w", err)
	}
	if len(out.Audios) == 0 {
		return nil, fmt.Errorf("text-to-speech: empty audios")
	}
	data, err := base64.StdEncoding.DecodeString(out.Audios[0])
	if err != nil {
		return nil, fmt.Errorf("text-to-speech: decode audio: %w", err)
	}
	return data, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-subscription-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do executes the request and decodes the JSON response. Rate limits,
// timeouts, and server errors are marked transient so the pipeline's retry
// policy picks them up; other 4xx responses are permanent.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return pipeline.Transient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("http %d: %s", resp.StatusCode, bytes.TrimSpace(b))
		if retryableStatus(resp.StatusCode) {
			return pipeline.Transient(err)
		}
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= 500
}

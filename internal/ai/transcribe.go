package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pbaille/rolodex/internal/domain"
)

const assemblyAPI = "https://api.assemblyai.com/v2"

// Transcriber turns media files into diarized transcripts: audio is
// extracted with ffmpeg, then transcribed with speaker labels by AssemblyAI.
type Transcriber struct {
	apiKey     string
	sampleRate int
	http       *http.Client
	pollEvery  time.Duration
}

// NewTranscriber creates a Transcriber using ASSEMBLYAI_API_KEY from the
// environment.
func NewTranscriber(sampleRate int) (*Transcriber, error) {
	apiKey := os.Getenv("ASSEMBLYAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ASSEMBLYAI_API_KEY environment variable not set")
	}
	if sampleRate == 0 {
		sampleRate = 16000
	}
	return &Transcriber{
		apiKey:     apiKey,
		sampleRate: sampleRate,
		http:       http.DefaultClient,
		pollEvery:  3 * time.Second,
	}, nil
}

// Transcribe extracts audio from a recording and transcribes it with
// speaker diarization. Speakers are labeled A, B, C, etc.
func (t *Transcriber) Transcribe(mediaPath string) (domain.Transcript, error) {
	audioPath, err := t.extractAudio(mediaPath)
	if err != nil {
		return domain.Transcript{}, err
	}
	defer os.Remove(audioPath)

	uploadURL, err := t.upload(audioPath)
	if err != nil {
		return domain.Transcript{}, err
	}
	return t.transcribeUpload(uploadURL)
}

// extractAudio converts the input to mono 16-bit wav via ffmpeg.
func (t *Transcriber) extractAudio(mediaPath string) (string, error) {
	if _, err := os.Stat(mediaPath); err != nil {
		return "", fmt.Errorf("media file: %w", err)
	}

	audioPath := filepath.Join(os.TempDir(),
		fmt.Sprintf("rolodex-audio-%d.wav", time.Now().UnixNano()))

	cmd := exec.Command("ffmpeg",
		"-i", mediaPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(t.sampleRate),
		"-ac", "1",
		"-y",
		audioPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg: %w: %s", err, truncate(stderr.String(), 400))
	}
	return audioPath, nil
}

func (t *Transcriber) upload(audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	req, err := http.NewRequest("POST", assemblyAPI+"/upload", f)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", t.apiKey)

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal upload response: %w", err)
	}
	return result.UploadURL, nil
}

type transcriptStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
	Text   string `json:"text"`

	Utterances []struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
		Start   int    `json:"start"`
		End     int    `json:"end"`
	} `json:"utterances"`
}

func (t *Transcriber) transcribeUpload(uploadURL string) (domain.Transcript, error) {
	reqBody, err := json.Marshal(map[string]any{
		"audio_url":      uploadURL,
		"speaker_labels": true,
	})
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("marshal transcript request: %w", err)
	}

	status, err := t.post("/transcript", reqBody)
	if err != nil {
		return domain.Transcript{}, err
	}

	for status.Status != "completed" {
		if status.Status == "error" {
			return domain.Transcript{}, fmt.Errorf("transcription failed: %s", status.Error)
		}
		time.Sleep(t.pollEvery)
		status, err = t.get("/transcript/" + status.ID)
		if err != nil {
			return domain.Transcript{}, err
		}
	}

	out := domain.Transcript{Text: status.Text}
	for _, u := range status.Utterances {
		out.Utterances = append(out.Utterances, domain.Utterance{
			Speaker: u.Speaker,
			Text:    u.Text,
			Start:   u.Start,
			End:     u.End,
		})
	}
	return out, nil
}

func (t *Transcriber) post(path string, body []byte) (*transcriptStatus, error) {
	req, err := http.NewRequest("POST", assemblyAPI+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", t.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return t.do(req)
}

func (t *Transcriber) get(path string) (*transcriptStatus, error) {
	req, err := http.NewRequest("GET", assemblyAPI+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", t.apiKey)
	return t.do(req)
}

func (t *Transcriber) do(req *http.Request) (*transcriptStatus, error) {
	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var status transcriptStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &status, nil
}

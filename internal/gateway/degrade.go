package gateway

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nulzo/oneai-gateway/internal/llm"
	"github.com/nulzo/oneai-gateway/internal/router"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

const musicTitleRunes = 50

// Degrades reports whether a failed task is answered with demo content
// instead of an error. Chat and image never degrade: a wrong answer or a
// placeholder picture would be mistaken for the real thing.
func Degrades(task api.Task) bool {
	switch task {
	case api.TaskAudio, api.TaskTranscription, api.TaskMusic, api.TaskVideo:
		return true
	default:
		return false
	}
}

// Degrade rewrites resp after a failed or empty adapter call. Vendor text in
// err is never copied into resp. It returns the failure kind for logging.
func Degrade(resp *api.CanonicalResponse, req *api.CapabilityRequest, candidates []router.Candidate, err error) llm.Kind {
	kind := llm.Classify(err)
	if kind == "" {
		kind = llm.KindInternal
	}
	vars := remediationVars(candidates)

	resp.Usage = &api.Usage{}
	resp.Cost = 0
	resp.Model = ""

	if !Degrades(req.Task) {
		resp.Success = false
		resp.Degraded = false
		if req.Task == api.TaskChat {
			resp.Content = chatRemediation(kind, vars)
			resp.Error = failureMessage(req.Task, kind)
		} else {
			resp.Error = imageRemediation(kind, vars)
		}
		return kind
	}

	resp.Success = true
	resp.Degraded = true
	resp.Error = ""
	resp.Provider = DemoProvider
	resp.Note = demoNote(req.Task, vars)

	switch req.Task {
	case api.TaskAudio:
		resp.AudioURL = DemoAudioURL()
	case api.TaskTranscription:
		resp.Content = DemoTranscript
		resp.AudioURL = DemoAudioURL()
	case api.TaskMusic:
		resp.AudioURL = DemoAudioURL()
		resp.Title = "Demo: " + truncateRunes(req.Prompt, musicTitleRunes)
	case api.TaskVideo:
		resp.VideoURL = DemoVideoURL
		resp.JobID = ""
		resp.Status = "completed"
	}
	return kind
}

// remediationVars names the keys that would have served the request. A
// pattern match narrows that to the one matched vendor.
func remediationVars(candidates []router.Candidate) []string {
	var vars []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if c.EnvVar == "" || seen[c.EnvVar] {
			continue
		}
		seen[c.EnvVar] = true
		vars = append(vars, c.EnvVar)
		if c.Rule != "" {
			break
		}
	}
	return vars
}

func joinVars(vars []string) string {
	switch len(vars) {
	case 0:
		return "a provider API key"
	case 1:
		return vars[0]
	default:
		return strings.Join(vars[:len(vars)-1], ", ") + " or " + vars[len(vars)-1]
	}
}

func chatRemediation(kind llm.Kind, vars []string) string {
	switch kind {
	case llm.KindConfiguration:
		return fmt.Sprintf("I'm not connected to an AI provider yet. To enable chat, set %s in the server environment and restart the gateway.", joinVars(vars))
	case llm.KindTimeout:
		return "The AI provider took too long to answer. Please try again in a moment, or pick a faster model."
	case llm.KindUnsupported:
		return "That model can't be used for chat. Pick a chat model, or leave the model empty to use the default provider."
	default:
		return fmt.Sprintf("I couldn't get an answer from the AI provider just now. Please try again shortly. If this keeps happening, check that %s is valid and has quota left.", joinVars(vars))
	}
}

func imageRemediation(kind llm.Kind, vars []string) string {
	switch kind {
	case llm.KindConfiguration:
		return fmt.Sprintf("Image generation is not configured. Set %s to enable it.", joinVars(vars))
	case llm.KindTimeout:
		return "Image generation timed out. Try again or use a smaller size."
	case llm.KindUnsupported:
		return "The selected model cannot generate images. Choose an image model."
	case llm.KindEmptyOutput:
		return "The image provider returned no images. Try rephrasing the prompt."
	default:
		return fmt.Sprintf("Image generation failed. Try again, or check that %s is valid.", joinVars(vars))
	}
}

func failureMessage(task api.Task, kind llm.Kind) string {
	switch kind {
	case llm.KindConfiguration:
		return fmt.Sprintf("%s provider is not configured", task)
	case llm.KindTimeout:
		return fmt.Sprintf("%s provider timed out", task)
	case llm.KindEmptyOutput:
		return fmt.Sprintf("%s provider returned an empty response", task)
	case llm.KindUnsupported:
		return fmt.Sprintf("model does not support %s", task)
	case llm.KindVendor:
		return fmt.Sprintf("%s provider request failed", task)
	default:
		return "internal error"
	}
}

var taskLabels = map[api.Task]string{
	api.TaskAudio:         "Text-to-speech",
	api.TaskTranscription: "Transcription",
	api.TaskMusic:         "Music generation",
	api.TaskVideo:         "Video generation",
}

func demoNote(task api.Task, vars []string) string {
	return fmt.Sprintf("%s is running in demo mode. Set %s to enable it.", taskLabels[task], joinVars(vars))
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

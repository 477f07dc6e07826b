package gateway

import (
	"fmt"
	"strings"

	"github.com/nulzo/oneai-gateway/pkg/api"
)

var chatRoles = map[string]bool{
	string(api.User):      true,
	string(api.Assistant): true,
	string(api.System):    true,
}

// Validate checks the fields each task needs before any routing happens.
// It returns nil or a validation problem keyed by field.
func Validate(req *api.CapabilityRequest) *api.Problem {
	if req == nil {
		return api.BadRequestError("request body is required")
	}

	errs := make(map[string]string)
	switch req.Task {
	case api.TaskChat:
		if len(req.Messages) == 0 {
			errs["messages"] = "at least one message is required"
		}
		for i, m := range req.Messages {
			if !chatRoles[m.Role] {
				errs[fmt.Sprintf("messages[%d].role", i)] = "must be one of user, assistant, system"
			}
			if strings.TrimSpace(m.Content) == "" {
				errs[fmt.Sprintf("messages[%d].content", i)] = "is required"
			}
		}
	case api.TaskImage, api.TaskVideo, api.TaskMusic:
		if strings.TrimSpace(req.Prompt) == "" {
			errs["prompt"] = "is required"
		}
	case api.TaskAudio:
		if strings.TrimSpace(req.Text) == "" {
			errs["text"] = "is required"
		}
	case api.TaskTranscription:
		if req.Audio == nil || len(req.Audio.Data) == 0 {
			errs["audio"] = "an audio file is required"
		}
	default:
		errs["task"] = fmt.Sprintf("unknown task %q", req.Task)
	}

	if len(errs) > 0 {
		return api.ValidationError(errs)
	}
	return nil
}

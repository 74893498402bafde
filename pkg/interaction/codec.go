package interaction

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/getmockd/mitmcore/pkg/httpvalue"
	"gopkg.in/yaml.v3"
)

// yamlRequest mirrors the on-disk request schema. Decoding into typed Go
// fields (rather than invoking a permissive loader) means only YAML
// scalars, sequences, and mappings are ever materialized — no arbitrary
// constructor ever runs, resolving the unrestricted-load concern the
// original tooling carried.
type yamlRequest struct {
	URL     string              `yaml:"url"`
	Method  string              `yaml:"method"`
	Body    any                 `yaml:"body"`
	Headers map[string][]string `yaml:"headers"`
}

type yamlStatus struct {
	Code    int    `yaml:"code"`
	Message string `yaml:"message"`
}

type yamlResponse struct {
	Status  yamlStatus          `yaml:"status"`
	Body    any                 `yaml:"body"`
	Headers map[string][]string `yaml:"headers"`
}

type yamlMatch struct {
	Exact []string          `yaml:"exact,omitempty"`
	Regex map[string]string `yaml:"regex,omitempty"`
}

type yamlCallback struct {
	Delay   *float64    `yaml:"delay,omitempty"`
	Request yamlRequest `yaml:"request"`
}

type yamlInteraction struct {
	Description string         `yaml:"description,omitempty"`
	Request     yamlRequest    `yaml:"request"`
	Response    yamlResponse   `yaml:"response"`
	Match       *yamlMatch     `yaml:"match,omitempty"`
	Callbacks   []yamlCallback `yaml:"callbacks"`
	MaxReplays  *int           `yaml:"max_replays,omitempty"`
}

func bodyFromYAML(v any) (isBytes bool, bytesVal []byte, textVal string) {
	switch b := v.(type) {
	case []byte:
		return true, b, ""
	case string:
		return false, nil, b
	default:
		return false, nil, ""
	}
}

func requestFromYAML(yr yamlRequest) httpvalue.Request {
	headers := httpvalue.NewHeadersFromDict(yr.Headers)
	isBytes, b, text := bodyFromYAML(yr.Body)
	if isBytes {
		return httpvalue.NewRequestFromBytes(yr.URL, yr.Method, b, headers, "")
	}
	return httpvalue.NewRequestFromText(yr.URL, yr.Method, text, headers, "", "")
}

func requestToYAML(r httpvalue.Request) yamlRequest {
	return yamlRequest{
		URL:     r.URL,
		Method:  r.Method,
		Body:    r.BodyText(),
		Headers: r.Headers.ToDict(),
	}
}

func responseFromYAML(yr yamlResponse) httpvalue.Response {
	headers := httpvalue.NewHeadersFromDict(yr.Headers)
	isBytes, b, text := bodyFromYAML(yr.Body)
	if isBytes {
		return httpvalue.NewResponseFromBytes(yr.Status.Code, yr.Status.Message, b, headers, "")
	}
	return httpvalue.NewResponseFromText(yr.Status.Code, yr.Status.Message, text, headers, "", "")
}

func responseToYAML(r httpvalue.Response) yamlResponse {
	return yamlResponse{
		Status:  yamlStatus{Code: r.StatusCode, Message: r.Reason},
		Body:    r.BodyText(),
		Headers: r.Headers.ToDict(),
	}
}

// nameFromPath derives an Interaction name from a scenario file's stem.
func nameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load parses a single scenario YAML file into an Interaction. The name is
// derived from the file's stem.
func Load(path string) (*Interaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("interaction: read %s: %w", path, err)
	}

	var doc yamlInteraction
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("interaction: parse %s: %w", path, err)
	}

	in := &Interaction{
		Name:        nameFromPath(path),
		Description: doc.Description,
		Request:     requestFromYAML(doc.Request),
		Response:    responseFromYAML(doc.Response),
	}

	if doc.Match == nil {
		in.Match = MatchDescriptor{Exact: append([]string(nil), DefaultExactFields...)}
	} else {
		in.Match = MatchDescriptor{Exact: doc.Match.Exact, Regex: doc.Match.Regex}
	}
	if err := in.Match.compile(); err != nil {
		return nil, fmt.Errorf("interaction: %s: %w", in.Name, err)
	}

	for _, cb := range doc.Callbacks {
		delay := 0.5
		if cb.Delay != nil {
			delay = *cb.Delay
		}
		in.Callbacks = append(in.Callbacks, CallbackDescriptor{
			Request:      requestFromYAML(cb.Request),
			DelaySeconds: delay,
		})
	}

	if doc.MaxReplays == nil {
		in.MaxReplays = Unlimited
	} else {
		in.MaxReplays = *doc.MaxReplays
	}

	return in, nil
}

// Save writes the Interaction to <directory>/<name>.yaml, emitting all
// fields including match and callbacks in their empty forms when unset.
func Save(in *Interaction, directory string) error {
	doc := yamlInteraction{
		Description: in.Description,
		Request:     requestToYAML(in.Request),
		Response:    responseToYAML(in.Response),
		Match:       &yamlMatch{Exact: in.Match.Exact, Regex: in.Match.Regex},
		Callbacks:   make([]yamlCallback, 0, len(in.Callbacks)),
	}
	maxReplays := in.MaxReplays
	doc.MaxReplays = &maxReplays

	for _, cb := range in.Callbacks {
		delay := cb.DelaySeconds
		doc.Callbacks = append(doc.Callbacks, yamlCallback{
			Delay:   &delay,
			Request: requestToYAML(cb.Request),
		})
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("interaction: marshal %s: %w", in.Name, err)
	}

	path := filepath.Join(directory, in.Name+".yaml")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("interaction: write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("interaction: rename %s: %w", path, err)
	}
	return nil
}

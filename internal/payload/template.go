package payload

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

const templateExt = ".toml"

// Template represents the structure of a TOML payload file
//
//	question = "Summarize: {{input}}"
//	streaming = true
//
//	[[history]]
//	role = "userMessage"
//	content = "Hi, I am {{name}}"
//
//	[override_config]
//	sessionId = "probe"
type Template struct {
	Question       string                 `toml:"question"`
	History        []Message              `toml:"history"`
	Streaming      *bool                  `toml:"streaming,omitempty"`
	OverrideConfig map[string]interface{} `toml:"override_config,omitempty"`
}

// LoadTemplate loads a payload file and returns its contents
func LoadTemplate(filePath string) (*Template, error) {
	var tmpl Template
	if _, err := toml.DecodeFile(filePath, &tmpl); err != nil {
		return nil, fmt.Errorf("error decoding payload file: %v", err)
	}
	for i, msg := range tmpl.History {
		if msg.Role != RoleUser && msg.Role != RoleAPI {
			return nil, fmt.Errorf("history entry %d has invalid role %q (expected %s or %s)", i+1, msg.Role, RoleUser, RoleAPI)
		}
	}
	return &tmpl, nil
}

// FindTemplate searches the payload directories for the named template.
// Later directories take precedence over earlier ones.
func FindTemplate(name string, dirs []string) (string, error) {
	file := name
	if !strings.HasSuffix(file, templateExt) {
		file = file + templateExt
	}

	var found string
	for _, dir := range dirs {
		candidate := filepath.Join(dir, file)
		if _, err := os.Stat(candidate); err == nil {
			found = candidate
		}
	}

	if found == "" {
		return "", fmt.Errorf("payload file '%s' not found in any of the payload directories: %v", file, dirs)
	}
	return found, nil
}

// Build returns the payload for a probe. With no template name it is the
// plain {"question": question, "history": []} body. With a template, the
// template fields are used and {{input}} plus any --arg keys are substituted.
func Build(question, templateName string, dirs []string, args []string) (Payload, error) {
	if templateName == "" {
		return New(question), nil
	}

	path, err := FindTemplate(templateName, dirs)
	if err != nil {
		return Payload{}, err
	}

	tmpl, err := LoadTemplate(path)
	if err != nil {
		return Payload{}, fmt.Errorf("error loading payload file: %v", err)
	}

	argMap, err := processArgs(args)
	if err != nil {
		return Payload{}, fmt.Errorf("error processing arguments: %v", err)
	}

	replacements := make(map[string]string)
	replacements["input"] = question
	for key, value := range argMap {
		replacements[key] = value
	}

	p := New(question)
	if tmpl.Question != "" {
		p.Question = substitute(tmpl.Question, replacements)
	}
	for _, msg := range tmpl.History {
		p.History = append(p.History, Message{
			Role:    msg.Role,
			Content: substitute(msg.Content, replacements),
		})
	}
	if tmpl.Streaming != nil {
		p.Streaming = *tmpl.Streaming
	}
	if len(tmpl.OverrideConfig) > 0 {
		p.OverrideConfig = tmpl.OverrideConfig
	}

	return p, nil
}

func substitute(s string, replacements map[string]string) string {
	for key, value := range replacements {
		s = strings.ReplaceAll(s, fmt.Sprintf("{{%s}}", key), value)
	}
	return s
}

// processArgs processes the command line arguments and returns a map of key-value pairs
func processArgs(args []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if strings.HasPrefix(arg, `"`) && strings.HasSuffix(arg, `"`) {
			arg = strings.Trim(arg, `"`)
		}

		parts := strings.SplitN(arg, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid argument format: %s. Expected format: key:value", arg)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		value = strings.ReplaceAll(value, `\:`, ":")
		value = strings.ReplaceAll(value, `\"`, `"`)

		if key == "" {
			return nil, fmt.Errorf("invalid argument format: %s. Key cannot be empty", arg)
		}
		if key == "input" {
			return nil, fmt.Errorf("'input' is a reserved keyword and cannot be used as a key")
		}
		result[key] = value
	}
	return result, nil
}

// Entry is a template found while listing payload directories
type Entry struct {
	Name string // Relative path without extension, using forward slashes
	Dir  string // Directory the template was found in
}

// List recursively scans the payload directories and returns the available
// templates sorted by name. When a name exists in several directories the
// last one wins. Missing directories are skipped.
func List(dirs []string) ([]Entry, error) {
	found := make(map[string]string)
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}

		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !strings.HasSuffix(info.Name(), templateExt) {
				return nil
			}

			relPath, err := filepath.Rel(dir, path)
			if err != nil {
				return nil
			}
			name := filepath.ToSlash(strings.TrimSuffix(relPath, templateExt))
			found[name] = dir
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error walking payload directory %s: %w", dir, err)
		}
	}

	entries := make([]Entry, 0, len(found))
	for name, dir := range found {
		entries = append(entries, Entry{Name: name, Dir: dir})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

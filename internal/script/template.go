package script

import "strings"

// Vars are the substitutions available to script templates.
type Vars map[string]string

// Render replaces {key} placeholders. An empty or missing name renders as
// "there" so greetings stay grammatical before the name is known.
func Render(tmpl string, vars Vars) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}

	pairs := make([]string, 0, 2*len(vars)+2)
	name := strings.TrimSpace(vars["name"])
	if name == "" {
		name = "there"
	}
	pairs = append(pairs, "{name}", name)
	for k, v := range vars {
		if k == "name" {
			continue
		}
		pairs = append(pairs, "{"+k+"}", v)
	}

	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Personalize renders a template that only depends on the candidate's name.
func Personalize(tmpl, name string) string {
	return Render(tmpl, Vars{"name": name})
}

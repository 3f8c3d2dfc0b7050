package scaffold

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/valyala/fasttemplate"

	"github.com/shaun/scaffold/server/internal/files"
)

const (
	startTag = "[["
	endTag   = "]]"
)

// Params selects what to generate.
type Params struct {
	Name        string
	Description string
	Language    string
	Framework   string
}

// Render produces the boilerplate files for p in a stable order.
func (c *Catalog) Render(p Params) ([]files.Entry, error) {
	const errCtx = "rendering scaffold"

	lang, fw, err := c.Lookup(p.Language, p.Framework)
	if err != nil {
		return nil, err
	}

	vars := map[string]any{
		"name":          p.Name,
		"description":   "",
		"language":      lang.Name,
		"framework":     fw.Name,
		"image":         lang.Image,
		"build":         fw.Build,
		"start":         fw.Start,
		"output":        fw.Output,
		"port":          strconv.Itoa(fw.Port),
		"containerPort": strconv.Itoa(fw.Port),
	}
	if p.Description != "" {
		vars["description"] = "\n" + p.Description + "\n"
	}
	if lang.Name == "javascript" {
		vars["containerPort"] = "80"
	}
	cmd, err := json.Marshal(strings.Fields(fw.Start))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}
	vars["cmd"] = string(cmd)

	set := files.NewSet()
	set.Put("README.md", expand(readmeTemplate, vars))
	set.Put(".gitignore", gitignoreTemplates[lang.Name])
	if tpl, ok := dockerfileTemplates[lang.Name]; ok {
		set.Put("Dockerfile", expand(tpl, vars))
	}
	set.Put("docker-compose.yml", expand(composeTemplate, vars))
	if tpl, ok := workflowTemplates[lang.Name]; ok {
		set.Put(".github/workflows/ci.yml", expand(tpl, vars))
	}

	switch lang.Name {
	case "javascript":
		pkg, err := packageJSON(p.Name, fw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}
		set.Put("package.json", pkg)
		set.Put("nginx.conf", nginxTemplate)
	case "python":
		set.Put("requirements.txt", requirementsTxt(fw))
	case "java":
		if fw.Gradle {
			set.Put("build.gradle", buildGradle(fw))
		} else {
			set.Put("pom.xml", pomXML(p.Name, fw))
		}
	}
	return set.Entries(), nil
}

func expand(tpl string, vars map[string]any) string {
	return fasttemplate.ExecuteString(tpl, startTag, endTag, vars)
}

type packageScripts struct {
	Dev   string `json:"dev"`
	Build string `json:"build"`
	Test  string `json:"test"`
	Lint  string `json:"lint"`
}

type packageManifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Private         bool              `json:"private"`
	Scripts         packageScripts    `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func packageJSON(name string, fw *Framework) (string, error) {
	m := packageManifest{
		Name:    name,
		Version: "0.1.0",
		Private: true,
		Scripts: packageScripts{
			Dev:   fw.Start,
			Build: fw.Build,
			Test:  "vitest run",
			Lint:  "eslint . --ext ts,tsx --report-unused-disable-directives --max-warnings 0",
		},
		Dependencies:    latest(fw.Dependencies),
		DevDependencies: latest(fw.DevDependencies),
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func latest(deps []string) map[string]string {
	out := make(map[string]string, len(deps))
	for _, d := range deps {
		out[d] = "latest"
	}
	return out
}

func requirementsTxt(fw *Framework) string {
	all := append(append([]string{}, fw.Dependencies...), fw.DevDependencies...)
	return strings.Join(all, "\n") + "\n"
}

func pomXML(name string, fw *Framework) string {
	var b strings.Builder
	write := func(dep, scope string) {
		group, artifact, _ := strings.Cut(dep, ":")
		b.WriteString("        <dependency>\n")
		fmt.Fprintf(&b, "            <groupId>%s</groupId>\n", group)
		fmt.Fprintf(&b, "            <artifactId>%s</artifactId>\n", artifact)
		if scope != "" {
			fmt.Fprintf(&b, "            <scope>%s</scope>\n", scope)
		}
		b.WriteString("        </dependency>\n")
	}
	for _, d := range fw.Dependencies {
		write(d, "")
	}
	for _, d := range fw.DevDependencies {
		write(d, "test")
	}
	return expand(pomTemplate, map[string]any{"name": name, "dependencies": b.String()})
}

func buildGradle(fw *Framework) string {
	var b strings.Builder
	for _, d := range fw.Dependencies {
		fmt.Fprintf(&b, "    implementation '%s'\n", d)
	}
	for _, d := range fw.DevDependencies {
		fmt.Fprintf(&b, "    testImplementation '%s'\n", d)
	}
	return expand(gradleTemplate, map[string]any{"dependencies": b.String()})
}
